package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hakim/domainwatch/internal/analyzer"
	"github.com/hakim/domainwatch/internal/models"
	"github.com/hakim/domainwatch/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus [domain...]",
	Short: "Build the labeled training corpus",
	Long: `Add labeled domains to the training corpus, or show corpus statistics.

Each domain is analyzed live (the full evidence pipeline runs) and stored in
the append-only corpus together with its label. Labels are one of: safe,
suspicious, malicious.

Domains can be given as arguments with a shared --label, or in bulk from a
seed file: one "domain,label" pair per line, blank lines and lines starting
with '#' ignored. Bulk imports run concurrently, bounded by the configured
collector concurrency.

With --stats (or no input at all), the current label distribution is printed.

Examples:
  domainwatch corpus google.com github.com --label safe
  domainwatch corpus login-paypal-verify.tk --label malicious --notes "phish feed 2026-08"
  domainwatch corpus --file seeds.txt
  domainwatch corpus --stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedFile, _ := cmd.Flags().GetString("file")
		label, _ := cmd.Flags().GetString("label")
		notes, _ := cmd.Flags().GetString("notes")
		statsOnly, _ := cmd.Flags().GetBool("stats")

		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'domainwatch init' first to create config")
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		if statsOnly || (seedFile == "" && len(args) == 0) {
			return printCorpusStats(store)
		}

		// Assemble the worklist: positional args with the shared label, plus
		// any seed file entries.
		type seed struct {
			domain string
			class  int
			notes  string
		}
		var seeds []seed

		if len(args) > 0 {
			if label == "" {
				return fmt.Errorf("--label is required when adding domains by argument")
			}
			class, err := parseLabel(label)
			if err != nil {
				return err
			}
			for _, d := range args {
				seeds = append(seeds, seed{domain: d, class: class, notes: notes})
			}
		}

		if seedFile != "" {
			f, err := os.Open(seedFile)
			if err != nil {
				return fmt.Errorf("opening seed file: %w", err)
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				parts := strings.SplitN(line, ",", 3)
				if len(parts) < 2 {
					return fmt.Errorf("%s:%d: expected \"domain,label\", got %q", seedFile, lineNo, line)
				}
				class, err := parseLabel(strings.TrimSpace(parts[1]))
				if err != nil {
					return fmt.Errorf("%s:%d: %w", seedFile, lineNo, err)
				}
				entry := seed{domain: strings.TrimSpace(parts[0]), class: class, notes: notes}
				if len(parts) == 3 {
					entry.notes = strings.TrimSpace(parts[2])
				}
				seeds = append(seeds, entry)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading seed file: %w", err)
			}
		}

		fmt.Printf("[*] Analyzing %d labeled domain(s)...\n", len(seeds))

		an := analyzer.FromConfig(cfg)

		// Analyses run concurrently; corpus appends are serialized so
		// failures never leave half-written samples interleaved with output.
		var mu sync.Mutex
		added, failed := 0, 0

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(cfg.Collectors.Concurrency)

		for _, s := range seeds {
			g.Go(func() error {
				analysis, err := an.Analyze(ctx, s.domain)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					fmt.Printf("[!] %s: %v\n", s.domain, err)
					failed++
					return nil
				}

				sample := models.NewTrainingSample(analysis, s.class, s.notes)
				if err := store.AppendSample(sample); err != nil {
					return fmt.Errorf("storing sample for %s: %w", s.domain, err)
				}
				fmt.Printf("[+] %s added as %s\n", analysis.Domain, models.LabelForClass(s.class))
				added++
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("\n[+] Corpus update complete: %d added, %d failed\n\n", added, failed)
		return printCorpusStats(store)
	},
}

// printCorpusStats prints the total sample count and per-label distribution.
func printCorpusStats(store *storage.Store) error {
	total, err := store.SampleCount()
	if err != nil {
		return fmt.Errorf("counting samples: %w", err)
	}
	dist, err := store.LabelDistribution()
	if err != nil {
		return fmt.Errorf("reading label distribution: %w", err)
	}

	fmt.Printf("Training corpus: %d sample(s)\n", total)
	for _, class := range []int{models.ClassSafe, models.ClassSuspicious, models.ClassMalicious} {
		fmt.Printf("  %-12s %d\n", models.LabelForClass(class), dist[class])
	}
	return nil
}

// parseLabel maps a label string (or bare class index) to its class.
func parseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(models.LabelSafe), "0":
		return models.ClassSafe, nil
	case string(models.LabelSuspicious), "1":
		return models.ClassSuspicious, nil
	case string(models.LabelMalicious), "2":
		return models.ClassMalicious, nil
	default:
		return 0, fmt.Errorf("unknown label %q (expected safe, suspicious or malicious)", s)
	}
}

func init() {
	corpusCmd.Flags().StringP("file", "f", "", "Seed file with one \"domain,label\" pair per line")
	corpusCmd.Flags().StringP("label", "l", "", "Label for domains given as arguments")
	corpusCmd.Flags().String("notes", "", "Free-form note stored with each sample")
	corpusCmd.Flags().Bool("stats", false, "Only print corpus statistics")
	rootCmd.AddCommand(corpusCmd)
}
