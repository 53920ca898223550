package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DecisionTree is a regression tree whose leaves hold the mean target of the
// samples that reached them. Nodes are stored in pre-order: a split node's
// children always come after it.
type DecisionTree struct {
	MaxDepth int
	Nodes    []TreeNode
}

// TreeNode is a split when IsLeaf is false and a prediction otherwise.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree returns an untrained tree; maxDepth <= 0 means 3.
func NewDecisionTree(maxDepth int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &DecisionTree{MaxDepth: maxDepth}
}

// Fit grows the tree from scratch, splitting each feature at its median.
func (dt *DecisionTree) Fit(x mat.Matrix, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 || len(y) == 0 {
		return errors.New("features or targets empty")
	}
	if rows != len(y) {
		return errors.New("features and targets size mismatch")
	}
	if dt.MaxDepth <= 0 {
		dt.MaxDepth = 3
	}

	features := make([][]float64, rows)
	for i := range features {
		features[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			features[i][j] = x.At(i, j)
		}
	}

	dt.Nodes = dt.buildNode(features, y, 0)
	return nil
}

// Predict walks the tree once per row of x.
func (dt *DecisionTree) Predict(x mat.Matrix) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, ErrNotTrained
	}
	rows, cols := x.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		v, err := dt.predictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (dt *DecisionTree) predictRow(features []float64) (float64, error) {
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// validate checks the pre-order layout so a decoded tree cannot loop forever.
func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return ErrNotTrained
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

// singleFeature rejects trees that split on anything but feature 0.
func (dt *DecisionTree) singleFeature() error {
	for i, node := range dt.Nodes {
		if !node.IsLeaf && node.FeatureIdx != 0 {
			return fmt.Errorf("node %d splits on feature %d, want 0", i, node.FeatureIdx)
		}
	}
	return nil
}

func (dt *DecisionTree) buildNode(features [][]float64, targets []float64, depth int) []TreeNode {
	leaf := []TreeNode{{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      mean(targets),
		IsLeaf:     true,
	}}
	if depth >= dt.MaxDepth || isConstant(targets) {
		return leaf
	}

	bestFeature, threshold, ok := findBestSplit(features, targets)
	if !ok {
		return leaf
	}

	leftFeatures, leftTargets, rightFeatures, rightTargets := splitData(features, targets, bestFeature, threshold)
	if len(leftTargets) == 0 || len(rightTargets) == 0 {
		return leaf
	}

	leftNodes := dt.buildNode(leftFeatures, leftTargets, depth+1)
	rightNodes := dt.buildNode(rightFeatures, rightTargets, depth+1)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      leaf[0].Value,
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, shift(leftNodes, 1)...)
	nodes = append(nodes, shift(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// shift rebases child indices of a subtree placed at offset.
func shift(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if !nodes[i].IsLeaf {
			nodes[i].LeftChild += offset
			nodes[i].RightChild += offset
		}
	}
	return nodes
}

func findBestSplit(features [][]float64, targets []float64) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		left, right := splitTargets(features, targets, featureIdx, threshold)
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		impurity := sse(left) + sse(right)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(features [][]float64, targets []float64, featureIdx int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	var leftFeatures, rightFeatures [][]float64
	var leftTargets, rightTargets []float64
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftFeatures, leftTargets, rightFeatures, rightTargets
}

func splitTargets(features [][]float64, targets []float64, featureIdx int, threshold float64) ([]float64, []float64) {
	var left, right []float64
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			left = append(left, targets[i])
		} else {
			right = append(right, targets[i])
		}
	}
	return left, right
}

// sse is the sum of squared deviations from the mean.
func sse(values []float64) float64 {
	m := mean(values)
	total := 0.0
	for _, v := range values {
		d := v - m
		total += d * d
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
