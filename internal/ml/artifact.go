package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ClassMetrics holds per-class evaluation numbers for the held-out split
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// NamedImportance pairs a feature name with its trained importance
type NamedImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Metrics summarises a training run
type Metrics struct {
	Accuracy             float64                 `json:"accuracy"`
	CVMean               float64                 `json:"cv_mean"`
	CVStd                float64                 `json:"cv_std"`
	ClassificationReport map[string]ClassMetrics `json:"classification_report"`
	ConfusionMatrix      [][]int                 `json:"confusion_matrix"`
	FeatureImportance    []NamedImportance       `json:"feature_importance"`
	TrainingDate         time.Time               `json:"training_date"`
	TrainingSamples      int                     `json:"training_samples"`
	TestSamples          int                     `json:"test_samples"`
}

// Artifact is the persisted form of a trained model: the forest, the exact
// feature column ordering it was trained with, and the training metrics.
// It is written atomically and read-only at serving time.
type Artifact struct {
	Forest       *Forest  `json:"forest"`
	FeatureNames []string `json:"feature_names"`
	Metrics      Metrics  `json:"metrics"`
}

// SaveArtifact writes the artifact as one JSON document, atomically via a
// temp file and rename so a crashed writer never leaves a torn artifact.
func SaveArtifact(path string, artifact *Artifact) error {
	if artifact.Forest == nil {
		return fmt.Errorf("artifact has no trained forest")
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshaling model artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing model artifact: %w", err)
	}

	return nil
}

// LoadArtifact reads and validates a model artifact. A structurally
// inconsistent artifact (e.g. a feature list that does not match the forest's
// column count) is rejected rather than risking misaligned columns.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing model artifact: %w", err)
	}

	if artifact.Forest == nil || len(artifact.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model artifact %s contains no trained forest", path)
	}
	if len(artifact.FeatureNames) == 0 {
		return nil, fmt.Errorf("model artifact %s contains no feature names", path)
	}
	if artifact.Forest.NumFeatures != len(artifact.FeatureNames) {
		return nil, fmt.Errorf("model artifact %s is inconsistent: forest expects %d features, artifact names %d",
			path, artifact.Forest.NumFeatures, len(artifact.FeatureNames))
	}

	return &artifact, nil
}
