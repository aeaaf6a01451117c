package main

import (
	"fmt"
	"os"

	"github.com/hakim/domainwatch/internal/config"
	"github.com/hakim/domainwatch/internal/storage"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize domainwatch with default configuration",
	Long: `Creates a default configuration file (domainwatch.yaml) and sets up the
database that stores analysis history and the training corpus.

This is typically the first command you run when setting up domainwatch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "domainwatch.yaml"
		if initDir != "." {
			configPath = fmt.Sprintf("%s/domainwatch.yaml", initDir)
		}

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		// Create default config
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Initialize database
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		fmt.Printf("Initialized database: %s\n", cfg.DBPath)

		// Print success message
		fmt.Println()
		fmt.Println("DomainWatch initialized successfully!")
		fmt.Println("Run 'domainwatch analyze <domain>' to analyze your first domain.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
