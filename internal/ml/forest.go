// Package ml implements the threat classifier: a random-forest ensemble
// trained offline on labeled analysis records and consulted at serving time
// through a read-only model artifact.
//
// No third-party ML library is used: the ensemble is a compact CART forest
// (gini impurity, bootstrap sampling, random feature subsets) which keeps the
// artifact a plain JSON document.
package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig bounds the ensemble during training
type ForestConfig struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
}

// DefaultForestConfig mirrors the deployed training parameters
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// treeNode is one node of a decision tree. Leaves carry the class
// distribution of the training samples that reached them; internal nodes
// carry a feature/threshold split.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Counts    []float64 `json:"c,omitempty"`
}

func (n *treeNode) isLeaf() bool { return n.Left == nil && n.Right == nil }

// Forest is a trained random-forest classifier. It is immutable after
// training, so concurrent PredictProba calls need no synchronization.
type Forest struct {
	Trees       []*treeNode  `json:"trees"`
	NumFeatures int          `json:"num_features"`
	NumClasses  int          `json:"num_classes"`
	Importances []float64    `json:"importances"`
	Config      ForestConfig `json:"config"`
}

// TrainForest fits a random forest on the given feature matrix and labels.
// Training is deterministic for a fixed config seed.
func TrainForest(X [][]float64, y []int, numClasses int, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("training set is empty")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature matrix has %d rows but %d labels", len(X), len(y))
	}

	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(cfg.Seed))

	forest := &Forest{
		Trees:       make([]*treeNode, 0, cfg.NumTrees),
		NumFeatures: numFeatures,
		NumClasses:  numClasses,
		Importances: make([]float64, numFeatures),
		Config:      cfg,
	}

	// Features considered per split: the usual sqrt heuristic
	mtry := int(math.Ceil(math.Sqrt(float64(numFeatures))))

	for t := 0; t < cfg.NumTrees; t++ {
		// Bootstrap sample with replacement
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		tree := buildTree(X, y, sample, numClasses, mtry, 0, cfg, rng, forest.Importances)
		forest.Trees = append(forest.Trees, tree)
	}

	normalize(forest.Importances)
	return forest, nil
}

// buildTree grows one CART tree recursively, accumulating impurity decrease
// into importances as it splits.
func buildTree(X [][]float64, y, indices []int, numClasses, mtry, depth int, cfg ForestConfig, rng *rand.Rand, importances []float64) *treeNode {
	counts := classCounts(y, indices, numClasses)

	if depth >= cfg.MaxDepth || len(indices) < cfg.MinSamplesSplit || isPure(counts) {
		return &treeNode{Feature: -1, Counts: counts}
	}

	feature, threshold, gain := bestSplit(X, y, indices, counts, numClasses, mtry, cfg.MinSamplesLeaf, rng)
	if feature < 0 {
		return &treeNode{Feature: -1, Counts: counts}
	}

	importances[feature] += gain * float64(len(indices))

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, numClasses, mtry, depth+1, cfg, rng, importances),
		Right:     buildTree(X, y, right, numClasses, mtry, depth+1, cfg, rng, importances),
	}
}

// bestSplit scans a random feature subset for the split with the largest
// gini gain, honoring the minimum leaf size. Returns feature -1 when no
// admissible split exists.
func bestSplit(X [][]float64, y, indices []int, parentCounts []float64, numClasses, mtry, minLeaf int, rng *rand.Rand) (int, float64, float64) {
	numFeatures := len(X[indices[0]])
	parentGini := gini(parentCounts, float64(len(indices)))

	candidates := rng.Perm(numFeatures)[:mtry]
	sort.Ints(candidates) // keep evaluation order deterministic across runs

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	order := make([]int, len(indices))

	for _, f := range candidates {
		copy(order, indices)
		sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftCounts := make([]float64, numClasses)
		rightCounts := append([]float64{}, parentCounts...)
		total := float64(len(order))

		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftCounts[y[i]]++
			rightCounts[y[i]]--

			// Only split between distinct feature values
			if X[i][f] == X[order[pos+1]][f] {
				continue
			}

			nLeft := pos + 1
			nRight := len(order) - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}

			weighted := (float64(nLeft)*gini(leftCounts, float64(nLeft)) +
				float64(nRight)*gini(rightCounts, float64(nRight))) / total
			gain := parentGini - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[i][f] + X[order[pos+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// PredictProba returns the class probability distribution for one feature
// vector, averaged over all trees.
func (f *Forest) PredictProba(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	for _, tree := range f.Trees {
		node := tree
		for !node.isLeaf() {
			if x[node.Feature] <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		total := 0.0
		for _, c := range node.Counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for class, c := range node.Counts {
			probs[class] += c / total
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the argmax class for one feature vector
func (f *Forest) Predict(x []float64) int {
	probs := f.PredictProba(x)
	best := 0
	for class, p := range probs {
		if p > probs[best] {
			best = class
		}
	}
	return best
}

func classCounts(y, indices []int, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, i := range indices {
		counts[y[i]]++
	}
	return counts
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func normalize(values []float64) {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
