package main

import (
	"fmt"

	"github.com/hakim/domainwatch/internal/models"
	"github.com/hakim/domainwatch/internal/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past analyses",
	Long: `Display a formatted table of persisted analyses.

Analyses are listed newest-first. Each row shows the analysis ID (truncated),
timestamp, domain status, heuristic score and — when a model was available at
analysis time — the combined score.

With --domain, only analyses for that domain are shown; without it, the whole
history is listed. Use --limit to cap the number of rows (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")

		// Step 2: Config check
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'domainwatch init' first to create config")
		}

		// Step 3: Open bbolt store
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		// Step 4: List analyses (sorted newest-first by store.ListAnalyses)
		analyses, err := store.ListAnalyses(domain)
		if err != nil {
			return fmt.Errorf("listing analyses: %w", err)
		}

		if len(analyses) == 0 {
			if domain != "" {
				fmt.Printf("No analysis history found for %s\n", domain)
			} else {
				fmt.Println("No analysis history found")
			}
			return nil
		}

		// Step 5: Apply limit
		if limit > 0 && len(analyses) > limit {
			analyses = analyses[:limit]
		}

		// Step 6: Print formatted table
		const separator = "────────────────────────────────────────────────────────────────────────────"

		if domain != "" {
			fmt.Printf("\nAnalysis History for %s\n", domain)
		} else {
			fmt.Printf("\nAnalysis History\n")
		}
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-17s  %-28s  %-16s  %-6s  %s\n",
			"#", "ID", "Analyzed", "Domain", "Status", "Score", "Combined")
		fmt.Println(separator)

		for i, a := range analyses {
			fmt.Printf("  %-3d  %-12s  %-17s  %-28s  %-16s  %-6.1f  %s\n",
				i+1,
				shortAnalysisID(a.ID),
				a.Timestamp.UTC().Format("2006-01-02 15:04"),
				truncate(a.Domain, 28),
				a.DomainStatus,
				a.SuspiciousScore,
				formatCombined(a))
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d analysis record(s)\n\n", len(analyses))

		return nil
	},
}

// shortAnalysisID returns the first 8 characters of a UUID followed by "..."
// for compact table display. Falls back to the full ID when shorter.
func shortAnalysisID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// truncate shortens s to at most n characters for table alignment.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatCombined renders the combined score column. Returns "-" for analyses
// recorded without a usable model.
func formatCombined(a *models.Analysis) string {
	if a.CombinedScore == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *a.CombinedScore)
}

func init() {
	historyCmd.Flags().StringP("domain", "d", "", "Filter history to this domain")
	historyCmd.Flags().Int("limit", 10, "Maximum number of analyses to display")
	rootCmd.AddCommand(historyCmd)
}
