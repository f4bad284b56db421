package ml

import (
	"errors"
	"fmt"
	"math"
)

// DecisionTree is a fitted tree stored as a flat node array with the root at index 0.
type DecisionTree struct {
	nodes   []TreeNode
	classes []int
	width   int
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx" yaml:"feature_idx"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
	LeftChild  int       `json:"left_child" yaml:"left_child"`
	RightChild int       `json:"right_child" yaml:"right_child"`
	ClassLabel int       `json:"class_label" yaml:"class_label"`
	IsLeaf     bool      `json:"is_leaf" yaml:"is_leaf"`
	Counts     []float64 `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// NewDecisionTree validates the node array. Children must come after their
// parent so that every walk from the root terminates.
func NewDecisionTree(nodes []TreeNode, classes []int, numFeatures int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("decision tree: no nodes")
	}
	if numFeatures <= 0 {
		return nil, errors.New("decision tree: n_features must be positive")
	}
	if len(classes) == 0 {
		return nil, errors.New("decision tree: classes is empty")
	}
	known := make(map[int]bool, len(classes))
	for _, c := range classes {
		known[c] = true
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if !known[node.ClassLabel] {
				return nil, fmt.Errorf("decision tree: node %d has unknown class %d", i, node.ClassLabel)
			}
			if len(node.Counts) != 0 && len(node.Counts) != len(classes) {
				return nil, fmt.Errorf("decision tree: node %d has %d counts, expected %d", i, len(node.Counts), len(classes))
			}
			for _, c := range node.Counts {
				if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
					return nil, fmt.Errorf("decision tree: node %d has invalid count %v", i, c)
				}
			}
			continue
		}
		if math.IsNaN(node.Threshold) {
			return nil, fmt.Errorf("decision tree: node %d threshold is NaN", i)
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return nil, fmt.Errorf("decision tree: node %d splits on feature %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("decision tree: node %d has invalid child %d", i, child)
			}
		}
	}
	return &DecisionTree{nodes: nodes, classes: classes, width: numFeatures}, nil
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.width
}

func (dt *DecisionTree) Classes() []int {
	return append([]int(nil), dt.classes...)
}

func (dt *DecisionTree) Nodes() []TreeNode {
	return append([]TreeNode(nil), dt.nodes...)
}

func (dt *DecisionTree) Predict(rows [][]float64) ([]int, error) {
	if err := checkShape("decision tree", rows, dt.width); err != nil {
		return nil, err
	}
	labels := make([]int, len(rows))
	for i, row := range rows {
		labels[i] = dt.nodes[dt.leaf(row)].ClassLabel
	}
	return labels, nil
}

func (dt *DecisionTree) PredictProba(rows [][]float64) ([][]float64, error) {
	if err := checkShape("decision tree", rows, dt.width); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = dt.leafProba(dt.nodes[dt.leaf(row)])
	}
	return out, nil
}

func (dt *DecisionTree) leaf(features []float64) int {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return idx
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// leafProba turns the training counts stored on a leaf into class
// probabilities. Leaves without counts are certain of their label.
func (dt *DecisionTree) leafProba(node TreeNode) []float64 {
	proba := make([]float64, len(dt.classes))
	total := 0.0
	for _, c := range node.Counts {
		total += c
	}
	if total > 0 {
		for i, c := range node.Counts {
			proba[i] = c / total
		}
		return proba
	}
	for i, c := range dt.classes {
		if c == node.ClassLabel {
			proba[i] = 1
		}
	}
	return proba
}
