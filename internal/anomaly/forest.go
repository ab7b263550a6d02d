// Package anomaly implements isolation-forest scoring with FPR-based
// threshold calibration and per-feature z-score explanation extraction
// (spec §4.G). No ecosystem isolation-forest or ML library appears
// anywhere in the retrieval pack, so this package is a from-scratch,
// deterministic, seeded implementation over the stdlib.
package anomaly

import (
	"math"
	"math/rand"
)

// isolationTree is one randomized binary partitioning tree. Leaves
// store the remaining sample count at termination, used to estimate
// path length for points that fall past the tree's depth limit.
type isolationTree struct {
	SplitFeature int            `json:"split_feature"`
	SplitValue   float64        `json:"split_value"`
	Left         *isolationTree `json:"left,omitempty"`
	Right        *isolationTree `json:"right,omitempty"`
	Size         int            `json:"size"` // only meaningful at leaves
	IsLeaf       bool           `json:"is_leaf"`
}

// forest is an ensemble of isolation trees (spec default n_estimators
// 100, max_samples 256).
type forest struct {
	Trees      []*isolationTree `json:"trees"`
	MaxSamples int              `json:"max_samples"`
	NumCols    int              `json:"num_cols"`
}

// buildForest fits nEstimators isolation trees, each on an independent
// random subsample of size maxSamples (or all rows, if fewer), seeded
// for reproducibility.
func buildForest(rows [][]float64, nEstimators, maxSamples int, seed int64) *forest {
	rng := rand.New(rand.NewSource(seed))
	numCols := 0
	if len(rows) > 0 {
		numCols = len(rows[0])
	}
	f := &forest{MaxSamples: maxSamples, NumCols: numCols}
	heightLimit := int(math.Ceil(math.Log2(float64(maxSamples))))

	for t := 0; t < nEstimators; t++ {
		sample := subsample(rows, maxSamples, rng)
		f.Trees = append(f.Trees, growTree(sample, 0, heightLimit, rng))
	}
	return f
}

func subsample(rows [][]float64, maxSamples int, rng *rand.Rand) [][]float64 {
	if maxSamples >= len(rows) {
		out := make([][]float64, len(rows))
		copy(out, rows)
		return out
	}
	idx := rng.Perm(len(rows))[:maxSamples]
	out := make([][]float64, maxSamples)
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func growTree(rows [][]float64, depth, heightLimit int, rng *rand.Rand) *isolationTree {
	if depth >= heightLimit || len(rows) <= 1 {
		return &isolationTree{IsLeaf: true, Size: len(rows)}
	}

	numCols := len(rows[0])
	feature := rng.Intn(numCols)

	lo, hi := rows[0][feature], rows[0][feature]
	for _, r := range rows {
		if r[feature] < lo {
			lo = r[feature]
		}
		if r[feature] > hi {
			hi = r[feature]
		}
	}
	if lo == hi {
		return &isolationTree{IsLeaf: true, Size: len(rows)}
	}
	splitValue := lo + rng.Float64()*(hi-lo)

	var leftRows, rightRows [][]float64
	for _, r := range rows {
		if r[feature] < splitValue {
			leftRows = append(leftRows, r)
		} else {
			rightRows = append(rightRows, r)
		}
	}
	if len(leftRows) == 0 || len(rightRows) == 0 {
		return &isolationTree{IsLeaf: true, Size: len(rows)}
	}

	return &isolationTree{
		SplitFeature: feature,
		SplitValue:   splitValue,
		Left:         growTree(leftRows, depth+1, heightLimit, rng),
		Right:        growTree(rightRows, depth+1, heightLimit, rng),
	}
}

// pathLength walks row down the tree, returning the number of edges
// traversed plus an estimated remaining path length c(size) for the
// leaf it lands in (Liu, Ting & Zhou's average unsuccessful BST search
// path correction).
func pathLength(t *isolationTree, row []float64, depth int) float64 {
	if t.IsLeaf {
		return float64(depth) + averagePathLength(t.Size)
	}
	if row[t.SplitFeature] < t.SplitValue {
		return pathLength(t.Left, row, depth+1)
	}
	return pathLength(t.Right, row, depth+1)
}

// averagePathLength is c(n), the expected path length of an
// unsuccessful BST search over n points (Liu et al., 2008).
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	return 2*harmonic(n-1) - 2*float64(n-1)/float64(n)
}

func harmonic(n int) float64 {
	return math.Log(float64(n)) + 0.5772156649 // Euler-Mascheroni constant
}

// score returns the isolation-forest anomaly score in (0,1]: values
// close to 1 indicate rows isolated in very few splits (anomalous),
// values close to 0.5 or below indicate rows typical of the baseline.
func (f *forest) score(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += pathLength(t, row, 0)
	}
	avg := sum / float64(len(f.Trees))
	cN := averagePathLength(f.MaxSamples)
	if cN == 0 {
		return 0
	}
	return math.Pow(2, -avg/cN)
}
