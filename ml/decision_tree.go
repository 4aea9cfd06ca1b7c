package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted classification tree. Leaves carry the class
// distribution of the training samples that reached them.
type DecisionTree struct {
	Features int        `json:"n_features"`
	Classes  int        `json:"n_classes"`
	Nodes    []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	Value      []float64 `json:"value,omitempty"`
	IsLeaf     bool      `json:"is_leaf"`
}

func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return errors.New("decision tree has no nodes")
	}
	if dt.Classes <= 0 {
		return errors.New("decision tree has no classes")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if len(node.Value) != dt.Classes {
				return fmt.Errorf("leaf %d has %d class values, expected %d", i, len(node.Value), dt.Classes)
			}
			continue
		}
		if node.FeatureIdx < 0 || (dt.Features > 0 && node.FeatureIdx >= dt.Features) {
			return fmt.Errorf("node %d splits on invalid feature %d", i, node.FeatureIdx)
		}
		// children are stored after their parent, so walks always terminate
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return nil
}

func (dt *DecisionTree) NumFeatures() int { return dt.Features }
func (dt *DecisionTree) NumClasses() int  { return dt.Classes }

func (dt *DecisionTree) PredictProba(features SparseRow) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("model not loaded")
	}
	if dt.Features > 0 && features.Dim != dt.Features {
		return nil, fmt.Errorf("%w: got %d features, tree expects %d", ErrDimension, features.Dim, dt.Features)
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return leafDistribution(node.Value), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= features.Dim {
			return nil, errors.New("feature index out of range")
		}
		// trees are fitted on float32 inputs; compare at that precision
		if float64(float32(features.At(node.FeatureIdx))) <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

func leafDistribution(value []float64) []float64 {
	total := 0.0
	for _, v := range value {
		total += v
	}
	probs := make([]float64, len(value))
	if total == 0 {
		return probs
	}
	for i, v := range value {
		probs[i] = v / total
	}
	return probs
}

// RandomForest averages the distributions of its trees.
type RandomForest struct {
	Features int            `json:"n_features"`
	Classes  int            `json:"n_classes"`
	Trees    []DecisionTree `json:"trees"`
}

func (rf *RandomForest) validate() error {
	if len(rf.Trees) == 0 {
		return errors.New("random forest has no trees")
	}
	for i := range rf.Trees {
		tree := &rf.Trees[i]
		if tree.Classes == 0 {
			tree.Classes = rf.Classes
		}
		if tree.Features == 0 {
			tree.Features = rf.Features
		}
		if tree.Classes != rf.Classes {
			return fmt.Errorf("tree %d has %d classes, forest has %d", i, tree.Classes, rf.Classes)
		}
		if err := tree.validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (rf *RandomForest) NumFeatures() int { return rf.Features }
func (rf *RandomForest) NumClasses() int  { return rf.Classes }

func (rf *RandomForest) PredictProba(features SparseRow) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("model not loaded")
	}
	probs := make([]float64, rf.Classes)
	for i := range rf.Trees {
		p, err := rf.Trees[i].PredictProba(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		for k, v := range p {
			probs[k] += v
		}
	}
	for k := range probs {
		probs[k] /= float64(len(rf.Trees))
	}
	return probs, nil
}
