package main

import (
	"fmt"

	"github.com/hakim/domainwatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "domainwatch",
	Short: "Domain reputation analyzer with heuristic and ML threat scoring",
	Long: `DomainWatch gathers evidence about a domain — DNS records, TLS certificate,
hosting geolocation and ASN, certificate-transparency subdomains, WHOIS
registration — and turns it into a threat verdict.

Two scoring paths run on every analysis: an additive heuristic over the raw
evidence, and (when a trained model artifact is present) a random-forest
classifier whose probability mass is blended with the heuristic into a single
combined score. Analyses are persisted so history and the training corpus
accumulate across runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":    true,
			"help":    true,
			"version": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		// Load config if file exists
		if cfgFile != "" {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "domainwatch.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	// Version flag
	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
