// Package tree implements CART regression trees.
//
// DecisionTreeRegressor grows a binary tree that minimises the mean squared
// error of its leaves. Split thresholds are midpoints between consecutive
// distinct feature values and samples with x <= threshold go left. Nodes are
// stored in a flat slice in pre-order so a fitted tree encodes directly with
// msgpack.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/pkg/errors"
)

// Leaf marks a node without children in Node.Feature.
const Leaf = -1

// Node is one node of a fitted tree.
type Node struct {
	Feature   int     `msgpack:"feature"`   // Split feature, or Leaf
	Threshold float64 `msgpack:"threshold"` // x <= Threshold goes left
	Left      int     `msgpack:"left"`      // Index of the left child in Nodes
	Right     int     `msgpack:"right"`     // Index of the right child in Nodes
	Value     float64 `msgpack:"value"`     // Mean target of the samples at this node
	Impurity  float64 `msgpack:"impurity"`  // MSE of the samples at this node
	NSamples  int     `msgpack:"n_samples"`
	Depth     int     `msgpack:"depth"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.Feature == Leaf }

// DecisionTreeRegressor implements a regression tree with the MSE criterion.
type DecisionTreeRegressor struct {
	State *model.StateManager `msgpack:"state"`

	// Hyperparameters
	MaxDepth            int     `msgpack:"max_depth"`         // Maximum depth of tree (0 = unlimited)
	MinSamplesSplit     int     `msgpack:"min_samples_split"` // Minimum samples to split a node
	MinSamplesLeaf      int     `msgpack:"min_samples_leaf"`  // Minimum samples in a leaf
	MaxFeatures         int     `msgpack:"max_features"`      // Features tried per split (0 = all)
	MinImpurityDecrease float64 `msgpack:"min_impurity_decrease"`
	RandomState         uint64  `msgpack:"random_state"`

	// Tree structure
	Nodes              []Node    `msgpack:"nodes"`
	FeatureImportances []float64 `msgpack:"feature_importances"`
}

// Option is a functional option for DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor creates a new regression tree.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MaxDepth:        0, // Unlimited
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0, // All
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithMaxDepth sets the maximum tree depth
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets minimum samples to split
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many randomly chosen features are tried per split
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxFeatures = n
	}
}

// WithMinImpurityDecrease sets the smallest weighted MSE decrease a split must give
func WithMinImpurityDecrease(v float64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinImpurityDecrease = v
	}
}

// WithRandomState sets the random seed
func WithRandomState(seed uint64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.RandomState = seed
	}
}

// Fit trains the tree on every row of X.
//
// Parameters:
//   - X: Training data of shape (n_samples, n_features)
//   - y: Targets of shape (n_samples, 1)
//
// Errors:
//   - ErrEmptyData: if X has no rows or columns
//   - ErrDimensionMismatch: if y is not a column vector with one value per row
//   - ValueError: if X or y contain NaN or infinities
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")
	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, yRows, 0)
	}
	targets := make([]float64, yRows)
	for i := range targets {
		targets[i] = y.At(i, 0)
	}
	sample := make([]int, nSamples)
	for i := range sample {
		sample[i] = i
	}
	return dt.FitSample(X, targets, sample)
}

// FitSample trains the tree on the rows of X listed in sample. Rows may repeat,
// which is how bootstrap samples are passed in by ensembles.
func (dt *DecisionTreeRegressor) FitSample(X mat.Matrix, y []float64, sample []int) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.FitSample")
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 || len(sample) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != nSamples {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, len(y), 0)
	}
	if dt.MinSamplesSplit < 2 || dt.MinSamplesLeaf < 1 || dt.MaxDepth < 0 || dt.MaxFeatures < 0 {
		return errors.NewValueError("DecisionTreeRegressor.Fit",
			fmt.Sprintf("invalid hyperparameters: max_depth=%d min_samples_split=%d min_samples_leaf=%d max_features=%d",
				dt.MaxDepth, dt.MinSamplesSplit, dt.MinSamplesLeaf, dt.MaxFeatures))
	}

	columns := make([][]float64, nFeatures)
	for j := range columns {
		columns[j] = make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValueError("DecisionTreeRegressor.Fit", fmt.Sprintf("non-finite value at (%d, %d)", i, j))
			}
			columns[j][i] = v
		}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValueError("DecisionTreeRegressor.Fit", fmt.Sprintf("non-finite target at row %d", i))
		}
	}

	b := &builder{
		dt:          dt,
		columns:     columns,
		y:           y,
		rng:         rand.New(rand.NewPCG(dt.RandomState, dt.RandomState^0x9e3779b97f4a7c15)),
		importances: make([]float64, nFeatures),
		scratch:     make([]int, len(sample)),
	}
	indices := append([]int(nil), sample...)
	b.build(indices, 0)

	total := 0.0
	for _, imp := range b.importances {
		total += imp
	}
	if total > 0 {
		for j := range b.importances {
			b.importances[j] /= total
		}
	}

	dt.Nodes = b.nodes
	dt.FeatureImportances = b.importances
	dt.State.SetDimensions(nFeatures, len(sample))
	dt.State.SetFitted()
	return nil
}

type builder struct {
	dt          *DecisionTreeRegressor
	columns     [][]float64
	y           []float64
	rng         *rand.Rand
	nodes       []Node
	importances []float64
	scratch     []int
}

type split struct {
	feature   int
	threshold float64
	nLeft     int
	gain      float64 // Decrease of the summed squared error
}

// build appends the subtree for indices and returns the index of its root.
func (b *builder) build(indices []int, depth int) int {
	n := len(indices)
	sum, sumSq := 0.0, 0.0
	for _, idx := range indices {
		v := b.y[idx]
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	sse := math.Max(sumSq-sum*sum/float64(n), 0)

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature:  Leaf,
		Value:    mean,
		Impurity: sse / float64(n),
		NSamples: n,
		Depth:    depth,
	})

	if b.shouldStop(indices, depth) {
		return id
	}

	best, ok := b.findBestSplit(indices, sum)
	if !ok || best.gain/float64(n) < b.dt.MinImpurityDecrease {
		return id
	}

	// Partition in place: rows with x <= threshold first.
	col := b.columns[best.feature]
	left := b.scratch[:0]
	right := make([]int, 0, n-best.nLeft)
	for _, idx := range indices {
		if col[idx] <= best.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	copy(indices, left)
	copy(indices[len(left):], right)
	nLeft := len(left)

	b.importances[best.feature] += best.gain

	leftID := b.build(indices[:nLeft], depth+1)
	rightID := b.build(indices[nLeft:], depth+1)

	node := &b.nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = leftID
	node.Right = rightID
	return id
}

func (b *builder) shouldStop(indices []int, depth int) bool {
	n := len(indices)
	if b.dt.MaxDepth > 0 && depth >= b.dt.MaxDepth {
		return true
	}
	if n < b.dt.MinSamplesSplit || n < 2*b.dt.MinSamplesLeaf {
		return true
	}
	// Pure node
	first := b.y[indices[0]]
	for _, idx := range indices[1:] {
		if b.y[idx] != first {
			return false
		}
	}
	return true
}

func (b *builder) candidateFeatures() []int {
	nFeatures := len(b.columns)
	if b.dt.MaxFeatures == 0 || b.dt.MaxFeatures >= nFeatures {
		features := make([]int, nFeatures)
		for j := range features {
			features[j] = j
		}
		return features
	}
	return b.rng.Perm(nFeatures)[:b.dt.MaxFeatures]
}

// findBestSplit scans every candidate feature in sorted order, keeping running
// sums of the targets on the left side. The split maximising
// sumL²/nL + sumR²/nR minimises the children's summed squared error.
func (b *builder) findBestSplit(indices []int, total float64) (split, bool) {
	n := len(indices)
	minLeaf := b.dt.MinSamplesLeaf
	parentScore := total * total / float64(n)

	best := split{feature: -1}
	bestScore := parentScore
	order := make([]int, n)

	for _, feature := range b.candidateFeatures() {
		col := b.columns[feature]
		copy(order, indices)
		sort.Slice(order, func(i, j int) bool { return col[order[i]] < col[order[j]] })

		sumLeft := 0.0
		for i := 0; i < n-1; i++ {
			sumLeft += b.y[order[i]]
			lo, hi := col[order[i]], col[order[i+1]]
			if lo == hi {
				continue
			}
			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}
			sumRight := total - sumLeft
			score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if score > bestScore {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestScore = score
				best = split{feature: feature, threshold: threshold, nLeft: nLeft}
			}
		}
	}
	if best.feature < 0 {
		return best, false
	}
	best.gain = bestScore - parentScore
	return best, true
}

// Predict returns one prediction per row of X as an (n_samples, 1) matrix.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.State.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.State.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", dt.State.NFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := range row {
			row[j] = X.At(i, j)
		}
		predictions.Set(i, 0, dt.PredictRow(row))
	}
	return predictions, nil
}

// PredictRow walks the tree for a single feature vector. The tree must be
// fitted and row must have NFeatures entries.
func (dt *DecisionTreeRegressor) PredictRow(row []float64) float64 {
	node := &dt.Nodes[0]
	for !node.IsLeaf() {
		if row[node.Feature] <= node.Threshold {
			node = &dt.Nodes[node.Left]
		} else {
			node = &dt.Nodes[node.Right]
		}
	}
	return node.Value
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             "squared_error",
		"max_depth":             dt.MaxDepth,
		"min_samples_split":     dt.MinSamplesSplit,
		"min_samples_leaf":      dt.MinSamplesLeaf,
		"max_features":          dt.MaxFeatures,
		"min_impurity_decrease": dt.MinImpurityDecrease,
		"random_state":          dt.RandomState,
	}
}

// GetDepth returns the depth of the tree
func (dt *DecisionTreeRegressor) GetDepth() int {
	depth := 0
	for i := range dt.Nodes {
		if dt.Nodes[i].Depth > depth {
			depth = dt.Nodes[i].Depth
		}
	}
	return depth
}

// GetNLeaves returns the number of leaf nodes
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	leaves := 0
	for i := range dt.Nodes {
		if dt.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// Validate checks the structural integrity of a decoded tree.
func (dt *DecisionTreeRegressor) Validate() error {
	if !dt.State.IsFitted() || len(dt.Nodes) == 0 {
		return errors.NewNotFittedError("DecisionTreeRegressor", "Validate")
	}
	for i := range dt.Nodes {
		node := &dt.Nodes[i]
		if node.IsLeaf() {
			continue
		}
		if node.Feature < 0 || node.Feature >= dt.State.NFeatures ||
			node.Left <= i || node.Left >= len(dt.Nodes) ||
			node.Right <= i || node.Right >= len(dt.Nodes) {
			return errors.NewValueError("DecisionTreeRegressor.Validate", fmt.Sprintf("malformed node %d", i))
		}
	}
	return nil
}
