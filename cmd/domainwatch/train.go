package main

import (
	"fmt"

	"github.com/hakim/domainwatch/internal/ml"
	"github.com/hakim/domainwatch/internal/models"
	"github.com/hakim/domainwatch/internal/storage"
	"github.com/spf13/cobra"
)

// minTrainingSamples is the smallest corpus worth training on: fewer samples
// than this cannot support a stratified 80/20 split plus 5-fold CV.
const minTrainingSamples = 25

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the threat classifier from the stored corpus",
	Long: `Train a random-forest classifier on the labeled training corpus and write
the model artifact used by 'domainwatch analyze'.

Feature vectors are extracted from each stored analysis, split into stratified
train/test sets, and evaluated with 5-fold cross-validation. Training is
deterministic for a given corpus and seed. The artifact is written atomically,
so an interrupted run never corrupts a previously working model.

Examples:
  domainwatch train
  domainwatch train --trees 200 --depth 12
  domainwatch train --output models/threat_model.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		trees, _ := cmd.Flags().GetInt("trees")
		depth, _ := cmd.Flags().GetInt("depth")
		seed, _ := cmd.Flags().GetInt64("seed")

		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'domainwatch init' first to create config")
		}
		if output == "" {
			output = cfg.Model.Path
		}

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		samples, err := store.ListSamples()
		if err != nil {
			return fmt.Errorf("loading training corpus: %w", err)
		}
		if len(samples) < minTrainingSamples {
			return fmt.Errorf("corpus has %d sample(s); need at least %d — add more with 'domainwatch corpus'",
				len(samples), minTrainingSamples)
		}

		forestCfg := ml.DefaultForestConfig()
		if trees > 0 {
			forestCfg.NumTrees = trees
		}
		if depth > 0 {
			forestCfg.MaxDepth = depth
		}
		if cmd.Flags().Changed("seed") {
			forestCfg.Seed = seed
		}

		fmt.Printf("[*] Training on %d samples (%d trees, max depth %d)...\n",
			len(samples), forestCfg.NumTrees, forestCfg.MaxDepth)

		trainer := ml.NewTrainer(forestCfg)
		X, y, err := trainer.Prepare(samples)
		if err != nil {
			return fmt.Errorf("preparing feature matrix: %w", err)
		}

		metrics, err := trainer.Train(X, y)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		printTrainingMetrics(metrics)

		if err := trainer.Save(output); err != nil {
			return fmt.Errorf("saving model artifact: %w", err)
		}
		fmt.Printf("[+] Model artifact written to %s\n", output)

		return nil
	},
}

// printTrainingMetrics prints the evaluation block for a completed run.
func printTrainingMetrics(m *ml.Metrics) {
	const separator = "────────────────────────────────────────────────────────────"

	fmt.Println()
	fmt.Println("Training Results")
	fmt.Println(separator)
	fmt.Printf("  Samples:        %d train / %d test\n", m.TrainingSamples, m.TestSamples)
	fmt.Printf("  Test accuracy:  %.3f\n", m.Accuracy)
	fmt.Printf("  CV accuracy:    %.3f ± %.3f (5-fold)\n", m.CVMean, m.CVStd)

	fmt.Println()
	fmt.Printf("  %-12s  %-9s  %-9s  %-9s  %s\n", "Class", "Precision", "Recall", "F1", "Support")
	for _, class := range []int{models.ClassSafe, models.ClassSuspicious, models.ClassMalicious} {
		label := string(models.LabelForClass(class))
		cm := m.ClassificationReport[label]
		fmt.Printf("  %-12s  %-9.3f  %-9.3f  %-9.3f  %d\n", label, cm.Precision, cm.Recall, cm.F1, cm.Support)
	}

	fmt.Println()
	fmt.Println("  Confusion matrix (rows: actual, cols: predicted)")
	for i, row := range m.ConfusionMatrix {
		fmt.Printf("  %-12s", models.LabelForClass(i))
		for _, n := range row {
			fmt.Printf("  %5d", n)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("  Top features by importance")
	for i, fi := range m.FeatureImportance {
		if i >= 10 {
			break
		}
		fmt.Printf("  %2d. %-28s %.4f\n", i+1, fi.Feature, fi.Importance)
	}
	fmt.Println(separator)
	fmt.Println()
}

func init() {
	trainCmd.Flags().String("output", "", "Model artifact path (defaults to model.path from config)")
	trainCmd.Flags().Int("trees", 0, "Number of trees in the forest (default 100)")
	trainCmd.Flags().Int("depth", 0, "Maximum tree depth (default 10)")
	trainCmd.Flags().Int64("seed", 0, "Random seed for reproducible training")
	rootCmd.AddCommand(trainCmd)
}
