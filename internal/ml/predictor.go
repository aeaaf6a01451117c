package ml

import (
	"fmt"
	"math"
	"sort"

	"github.com/hakim/domainwatch/internal/features"
	"github.com/hakim/domainwatch/internal/models"
)

// TopFeatureCount is how many contributing features a prediction reports
const TopFeatureCount = 5

// Predictor serves threat predictions from a persisted model artifact.
//
// Construction attempts to load the artifact once; when it is missing or
// corrupt, the predictor stays in a permanent degraded mode for its lifetime
// and every Predict call reports MLAvailable false. The loaded model is
// read-only, so concurrent Predict calls are safe.
type Predictor struct {
	artifact *Artifact
	loadErr  error
}

// NewPredictor loads the model artifact at path. It never fails: an
// unusable artifact produces a degraded predictor, not an error.
func NewPredictor(path string) *Predictor {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return &Predictor{loadErr: err}
	}
	return &Predictor{artifact: artifact}
}

// Available reports whether a usable model is loaded
func (p *Predictor) Available() bool { return p.artifact != nil }

// Predict classifies an analysis record. Errors and panics during
// prediction are absorbed into an unavailable result rather than propagated.
func (p *Predictor) Predict(a *models.Analysis) (result *models.Prediction) {
	defer func() {
		if r := recover(); r != nil {
			result = &models.Prediction{
				MLAvailable: false,
				Error:       fmt.Sprintf("prediction panic: %v", r),
			}
		}
	}()

	if p.artifact == nil {
		return &models.Prediction{
			MLAvailable: false,
			Error:       "ML model not available",
		}
	}

	vector := features.Extract(a)

	// Column order comes from the artifact, not the current extractor, so an
	// older model keeps working if the extractor later grows features.
	x := vector.Slice(p.artifact.FeatureNames)

	probs := p.artifact.Forest.PredictProba(x)
	class := argmax(probs)

	probabilities := map[models.Label]float64{
		models.LabelSafe:       0,
		models.LabelSuspicious: 0,
		models.LabelMalicious:  0,
	}
	for i, prob := range probs {
		probabilities[models.LabelForClass(i)] = prob
	}

	return &models.Prediction{
		MLAvailable:   true,
		Prediction:    models.LabelForClass(class),
		Confidence:    probs[class],
		Probabilities: probabilities,
		TopFeatures:   p.topContributions(x),
		MLScore:       mlScore(probabilities),
	}
}

// mlScore maps the probability distribution to a 0-100 threat score:
// a fully suspicious verdict scores 50, a fully malicious one 100
func mlScore(probs map[models.Label]float64) float64 {
	return probs[models.LabelSuspicious]*50 + probs[models.LabelMalicious]*100
}

// topContributions ranks features by |value * importance| as a lightweight
// explainability aid
func (p *Predictor) topContributions(x []float64) []models.FeatureContribution {
	contributions := make([]models.FeatureContribution, 0, len(p.artifact.FeatureNames))
	for i, name := range p.artifact.FeatureNames {
		importance := p.artifact.Forest.Importances[i]
		contributions = append(contributions, models.FeatureContribution{
			Feature:      name,
			Value:        x[i],
			Importance:   importance,
			Contribution: x[i] * importance,
		})
	}

	sort.SliceStable(contributions, func(a, b int) bool {
		return math.Abs(contributions[a].Contribution) > math.Abs(contributions[b].Contribution)
	})

	if len(contributions) > TopFeatureCount {
		contributions = contributions[:TopFeatureCount]
	}
	return contributions
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
