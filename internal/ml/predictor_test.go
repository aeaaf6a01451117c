package ml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/domainwatch/internal/models"
)

// writeTinyArtifact trains a two-feature forest where domain_length alone
// separates the classes, and persists it for predictor tests.
func writeTinyArtifact(t *testing.T) string {
	t.Helper()

	var X [][]float64
	var y []int
	for i := 0; i < 10; i++ {
		X = append(X, []float64{8 + float64(i%4), 0})
		y = append(y, models.ClassSafe)
		X = append(X, []float64{20 + float64(i%4), 0})
		y = append(y, models.ClassSuspicious)
		X = append(X, []float64{32 + float64(i%4), 1})
		y = append(y, models.ClassMalicious)
	}

	forest, err := TrainForest(X, y, models.NumClasses, testForestConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, SaveArtifact(path, &Artifact{
		Forest:       forest,
		FeatureNames: []string{"domain_length", "has_ssl_error"},
		Metrics:      Metrics{TrainingDate: time.Now().UTC()},
	}))
	return path
}

func TestPredictorDegradedOnMissingArtifact(t *testing.T) {
	p := NewPredictor(filepath.Join(t.TempDir(), "missing.json"))
	assert.False(t, p.Available())

	result := p.Predict(models.NewAnalysis("example.com"))
	require.NotNil(t, result)
	assert.False(t, result.MLAvailable)
	assert.Equal(t, "ML model not available", result.Error)
	assert.Empty(t, result.Prediction)
	assert.Zero(t, result.MLScore)
}

func TestPredictorDegradedOnCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))

	p := NewPredictor(path)
	assert.False(t, p.Available())

	result := p.Predict(models.NewAnalysis("example.com"))
	assert.False(t, result.MLAvailable)
}

func TestPredictorClassifies(t *testing.T) {
	p := NewPredictor(writeTinyArtifact(t))
	require.True(t, p.Available())

	// 30 letters + ".tk" puts domain_length in the malicious band, and the
	// failed handshake sets has_ssl_error
	a := models.NewAnalysis(strings.Repeat("a", 30) + ".tk")
	a.SSLInfo = models.SSLInfo{Error: "connection refused"}

	result := p.Predict(a)
	require.True(t, result.MLAvailable)
	assert.Equal(t, models.LabelMalicious, result.Prediction)
	assert.Greater(t, result.MLScore, 80.0)

	sum := 0.0
	for _, label := range []models.Label{models.LabelSafe, models.LabelSuspicious, models.LabelMalicious} {
		prob, ok := result.Probabilities[label]
		require.True(t, ok)
		sum += prob
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, result.Probabilities[models.LabelMalicious], result.Confidence, 1e-9)

	require.NotEmpty(t, result.TopFeatures)
	assert.LessOrEqual(t, len(result.TopFeatures), TopFeatureCount)
}

func TestPredictorSafeDomain(t *testing.T) {
	p := NewPredictor(writeTinyArtifact(t))

	a := models.NewAnalysis("short.com")
	a.SSLInfo = models.SSLInfo{Issuer: "CN=DigiCert", Valid: true}

	result := p.Predict(a)
	require.True(t, result.MLAvailable)
	assert.Equal(t, models.LabelSafe, result.Prediction)
	assert.Less(t, result.MLScore, 20.0)
}

func TestMLScoreMapping(t *testing.T) {
	assert.Equal(t, 0.0, mlScore(map[models.Label]float64{models.LabelSafe: 1}))
	assert.Equal(t, 50.0, mlScore(map[models.Label]float64{models.LabelSuspicious: 1}))
	assert.Equal(t, 100.0, mlScore(map[models.Label]float64{models.LabelMalicious: 1}))
	assert.InDelta(t, 45.0,
		mlScore(map[models.Label]float64{models.LabelSuspicious: 0.5, models.LabelMalicious: 0.2}), 1e-9)
}

func TestArtifactValidation(t *testing.T) {
	dir := t.TempDir()

	// Feature count mismatch between forest and names must fail loudly
	forest, err := TrainForest([][]float64{{1, 2}, {3, 4}, {1, 5}, {2, 6}}, []int{0, 1, 0, 1}, models.NumClasses, testForestConfig())
	require.NoError(t, err)

	path := filepath.Join(dir, "mismatch.json")
	require.NoError(t, SaveArtifact(path, &Artifact{
		Forest:       forest,
		FeatureNames: []string{"only_one"},
	}))
	_, err = LoadArtifact(path)
	require.Error(t, err)
}
