package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hakim/domainwatch/internal/analyzer"
	"github.com/hakim/domainwatch/internal/ml"
	"github.com/hakim/domainwatch/internal/models"
	"github.com/hakim/domainwatch/internal/ratelimit"
	"github.com/hakim/domainwatch/internal/report"
	"github.com/hakim/domainwatch/internal/storage"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <domain> [domain...]",
	Short: "Analyze one or more domains and score them",
	Long: `Run the full evidence pipeline for each domain: DNS records, TLS
certificate, hosting geolocation/ASN, certificate-transparency subdomains and
WHOIS data are collected concurrently, then CDN detection, domain status, the
heuristic suspicion score and (when a trained model is available) the ML
verdict and combined score are derived.

Every analysis is persisted to the configured database and shows up in
'domainwatch history'. Inputs that resolve to private, loopback or otherwise
non-public addresses are rejected before any evidence is collected.

Examples:
  domainwatch analyze example.com
  domainwatch analyze login-paypal-verify.tk suspicious-site.xyz
  domainwatch analyze example.com --report example_report.md
  domainwatch analyze example.com --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportPath, _ := cmd.Flags().GetString("report")
		asJSON, _ := cmd.Flags().GetBool("json")
		noSave, _ := cmd.Flags().GetBool("no-save")

		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'domainwatch init' first to create config")
		}

		if reportPath != "" && len(args) > 1 {
			return fmt.Errorf("--report accepts a single domain; got %d", len(args))
		}

		// Open bbolt store unless persistence was opted out of.
		var store *storage.Store
		if !noSave {
			var err error
			store, err = storage.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()
		}

		an := analyzer.FromConfig(cfg)
		predictor := ml.NewPredictor(cfg.Model.Path)
		limiter := ratelimit.NewPerCaller(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

		if verbose && !predictor.Available() {
			fmt.Println("[!] No usable model artifact found — running with heuristic scoring only")
		}

		ctx := context.Background()
		var failures []string

		for _, raw := range args {
			if !limiter.Allow("cli") {
				return fmt.Errorf("rate limit exceeded (%d analyses/minute); try again later", cfg.RateLimit.PerMinute)
			}

			fmt.Printf("[*] Analyzing %s...\n", raw)

			analysis, err := an.Analyze(ctx, raw)
			if err != nil {
				fmt.Printf("[!] %s: %v\n", raw, err)
				failures = append(failures, raw)
				continue
			}

			// ML verdict and combined score. The analysis stays useful when the
			// model is missing or broken: heuristic-only, no combined score.
			analysis.MLPrediction = predictor.Predict(analysis)
			if analysis.MLPrediction.MLAvailable {
				combined := analyzer.Combine(analysis.SuspiciousScore, analysis.MLPrediction.MLScore, cfg.Model.Weight)
				analysis.CombinedScore = &combined
			}

			if store != nil {
				if err := store.SaveAnalysis(analysis); err != nil {
					fmt.Printf("[!] Warning: saving analysis for %s: %v\n", analysis.Domain, err)
				}
			}

			if asJSON {
				data, err := json.MarshalIndent(analysis, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding analysis: %w", err)
				}
				fmt.Println(string(data))
			} else {
				printAnalysisSummary(analysis)
			}

			if reportPath != "" {
				if err := report.WriteAnalysisReport(analysis, reportPath); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Printf("[+] Report written to %s\n", reportPath)
			}
		}

		if len(failures) > 0 {
			return fmt.Errorf("analysis failed for: %s", strings.Join(failures, ", "))
		}
		return nil
	},
}

// printAnalysisSummary prints the human-readable verdict block for one analysis.
func printAnalysisSummary(a *models.Analysis) {
	const separator = "────────────────────────────────────────────────────────────"

	fmt.Println()
	fmt.Printf("[+] Analysis complete: %s\n", a.Domain)
	fmt.Println(separator)
	fmt.Printf("    Status:          %s\n", a.DomainStatus)
	fmt.Printf("    Heuristic score: %.1f / 100\n", a.SuspiciousScore)

	if a.MLPrediction != nil && a.MLPrediction.MLAvailable {
		fmt.Printf("    ML verdict:      %s (%.1f%% confidence)\n",
			a.MLPrediction.Prediction, a.MLPrediction.Confidence*100)
		fmt.Printf("    ML score:        %.1f / 100\n", a.MLPrediction.MLScore)
	} else {
		fmt.Printf("    ML verdict:      unavailable\n")
	}
	if a.CombinedScore != nil {
		fmt.Printf("    Combined score:  %.1f / 100\n", *a.CombinedScore)
	}

	fmt.Printf("    DNS:             A=%d AAAA=%d MX=%d NS=%d TXT=%d CNAME=%d\n",
		len(a.DNSRecords[models.DNSRecordA]), len(a.DNSRecords[models.DNSRecordAAAA]),
		len(a.DNSRecords[models.DNSRecordMX]), len(a.DNSRecords[models.DNSRecordNS]),
		len(a.DNSRecords[models.DNSRecordTXT]), len(a.DNSRecords[models.DNSRecordCNAME]))

	if a.SSLInfo.Failed() {
		fmt.Printf("    TLS:             error (%s)\n", a.SSLInfo.Error)
	} else {
		fmt.Printf("    TLS:             issued by %s, expires %s\n",
			a.SSLInfo.Issuer, a.SSLInfo.NotAfter.UTC().Format("2006-01-02"))
	}

	if a.IPInfo.Failed() {
		fmt.Printf("    Hosting:         unknown (%s)\n", a.IPInfo.Error)
	} else {
		fmt.Printf("    Hosting:         %s (%s, %s)\n", a.IPInfo.IP, a.IPInfo.Geolocation.Country, a.IPInfo.ASN.Org)
	}

	if a.CDNDetection.Detected {
		fmt.Printf("    CDN:             %s (%d bypass probes)\n",
			a.CDNDetection.Provider, len(a.CDNDetection.BypassAttempts))
	} else {
		fmt.Printf("    CDN:             none detected\n")
	}

	fmt.Printf("    Subdomains:      %d via certificate transparency\n", len(a.Subdomains))
	fmt.Println(separator)
}

func init() {
	analyzeCmd.Flags().String("report", "", "Write a markdown report to this path (single domain only)")
	analyzeCmd.Flags().Bool("json", false, "Print the full analysis record as JSON")
	analyzeCmd.Flags().Bool("no-save", false, "Skip persisting the analysis to the database")
	rootCmd.AddCommand(analyzeCmd)
}
