package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/hakim/domainwatch/internal/features"
	"github.com/hakim/domainwatch/internal/models"
)

// Trainer fits the threat classifier offline from a labeled corpus and
// persists the resulting artifact. It is not on the serving path.
type Trainer struct {
	cfg          ForestConfig
	forest       *Forest
	featureNames []string
	metrics      Metrics
}

// NewTrainer creates a trainer with the given forest parameters
func NewTrainer(cfg ForestConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Prepare runs feature extraction over every corpus sample in order and
// fixes the column ordering the model will be trained with.
func (t *Trainer) Prepare(samples []*models.TrainingSample) ([][]float64, []int, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("training corpus is empty")
	}

	t.featureNames = features.Names()

	X := make([][]float64, 0, len(samples))
	y := make([]int, 0, len(samples))

	for _, sample := range samples {
		if sample.Analysis == nil {
			return nil, nil, fmt.Errorf("corpus sample %s has no analysis record", sample.ID)
		}
		if sample.Class < 0 || sample.Class >= models.NumClasses {
			return nil, nil, fmt.Errorf("corpus sample %s has invalid class %d", sample.ID, sample.Class)
		}
		vector := features.Extract(sample.Analysis)
		X = append(X, vector.Slice(t.featureNames))
		y = append(y, sample.Class)
	}

	return X, y, nil
}

// Train fits the forest on a stratified 80% of the data, evaluates on the
// held-out 20%, and cross-validates the training portion with 5 folds.
func (t *Trainer) Train(X [][]float64, y []int) (*Metrics, error) {
	if len(t.featureNames) == 0 {
		t.featureNames = features.Names()
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	trainIdx, testIdx := stratifiedSplit(y, 0.2, rng)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, fmt.Errorf("corpus too small for a stratified split (%d samples)", len(y))
	}

	XTrain, yTrain := subset(X, y, trainIdx)
	XTest, yTest := subset(X, y, testIdx)

	forest, err := TrainForest(XTrain, yTrain, models.NumClasses, t.cfg)
	if err != nil {
		return nil, fmt.Errorf("fitting forest: %w", err)
	}
	t.forest = forest

	predictions := make([]int, len(XTest))
	for i, x := range XTest {
		predictions[i] = forest.Predict(x)
	}

	cvMean, cvStd, err := crossValidate(XTrain, yTrain, t.cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("cross-validating: %w", err)
	}

	t.metrics = Metrics{
		Accuracy:             accuracy(yTest, predictions),
		CVMean:               cvMean,
		CVStd:                cvStd,
		ClassificationReport: classificationReport(yTest, predictions),
		ConfusionMatrix:      confusionMatrix(yTest, predictions),
		FeatureImportance:    t.topImportances(15),
		TrainingDate:         time.Now().UTC(),
		TrainingSamples:      len(trainIdx),
		TestSamples:          len(testIdx),
	}

	return &t.metrics, nil
}

// Save persists the trained model, feature ordering and metrics as one
// atomic artifact
func (t *Trainer) Save(path string) error {
	if t.forest == nil {
		return fmt.Errorf("no model to save: train first")
	}
	return SaveArtifact(path, &Artifact{
		Forest:       t.forest,
		FeatureNames: t.featureNames,
		Metrics:      t.metrics,
	})
}

// Load restores a previously trained model into the trainer. Unlike the
// predictor, a malformed artifact is a loud failure here.
func (t *Trainer) Load(path string) error {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return err
	}
	t.forest = artifact.Forest
	t.featureNames = artifact.FeatureNames
	t.metrics = artifact.Metrics
	return nil
}

// Forest exposes the fitted ensemble, or nil before training
func (t *Trainer) Forest() *Forest { return t.forest }

// Metrics returns the metrics of the last training run
func (t *Trainer) Metrics() Metrics { return t.metrics }

// topImportances returns the n highest-ranked features by importance
func (t *Trainer) topImportances(n int) []NamedImportance {
	ranked := make([]NamedImportance, 0, len(t.featureNames))
	for i, name := range t.featureNames {
		ranked = append(ranked, NamedImportance{Feature: name, Importance: t.forest.Importances[i]})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Importance > ranked[b].Importance
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// stratifiedSplit partitions sample indices into train/test sets preserving
// the per-class proportions
func stratifiedSplit(y []int, testFrac float64, rng *rand.Rand) (train, test []int) {
	byClass := make(map[int][]int)
	for i, class := range y {
		byClass[class] = append(byClass[class], i)
	}

	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	for _, class := range classes {
		indices := byClass[class]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		nTest := int(math.Round(testFrac * float64(len(indices))))
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// crossValidate runs stratified 5-fold cross-validation and returns the mean
// and standard deviation of the fold accuracies.
func crossValidate(X [][]float64, y []int, cfg ForestConfig, rng *rand.Rand) (mean, std float64, err error) {
	const folds = 5

	// Assign folds round-robin within each class after shuffling
	assignment := make([]int, len(y))
	byClass := make(map[int][]int)
	for i, class := range y {
		byClass[class] = append(byClass[class], i)
	}
	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	for _, class := range classes {
		indices := byClass[class]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		for pos, i := range indices {
			assignment[i] = pos % folds
		}
	}

	scores := make([]float64, 0, folds)
	for fold := 0; fold < folds; fold++ {
		var trainIdx, testIdx []int
		for i := range y {
			if assignment[i] == fold {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		if len(testIdx) == 0 || len(trainIdx) == 0 {
			continue
		}

		XTrain, yTrain := subset(X, y, trainIdx)
		XTest, yTest := subset(X, y, testIdx)

		forest, ferr := TrainForest(XTrain, yTrain, models.NumClasses, cfg)
		if ferr != nil {
			return 0, 0, ferr
		}

		predictions := make([]int, len(XTest))
		for i, x := range XTest {
			predictions[i] = forest.Predict(x)
		}
		scores = append(scores, accuracy(yTest, predictions))
	}

	if len(scores) == 0 {
		return 0, 0, fmt.Errorf("no usable folds")
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		std += (s - mean) * (s - mean)
	}
	std = math.Sqrt(std / float64(len(scores)))
	return mean, std, nil
}

func subset(X [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for pos, i := range indices {
		xs[pos] = X[i]
		ys[pos] = y[i]
	}
	return xs, ys
}

func accuracy(actual, predicted []int) float64 {
	if len(actual) == 0 {
		return 0
	}
	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual))
}

func confusionMatrix(actual, predicted []int) [][]int {
	matrix := make([][]int, models.NumClasses)
	for i := range matrix {
		matrix[i] = make([]int, models.NumClasses)
	}
	for i := range actual {
		matrix[actual[i]][predicted[i]]++
	}
	return matrix
}

func classificationReport(actual, predicted []int) map[string]ClassMetrics {
	report := make(map[string]ClassMetrics, models.NumClasses)
	for class := 0; class < models.NumClasses; class++ {
		tp, fp, fn := 0, 0, 0
		for i := range actual {
			switch {
			case predicted[i] == class && actual[i] == class:
				tp++
			case predicted[i] == class && actual[i] != class:
				fp++
			case predicted[i] != class && actual[i] == class:
				fn++
			}
		}
		precision := safeDiv(float64(tp), float64(tp+fp))
		recall := safeDiv(float64(tp), float64(tp+fn))
		report[string(models.LabelForClass(class))] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        safeDiv(2*precision*recall, precision+recall),
			Support:   tp + fn,
		}
	}
	return report
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
