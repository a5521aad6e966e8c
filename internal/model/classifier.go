package model

import (
	"fmt"
	"math"
)

// TreeNode is one node of a boosted tree. Internal nodes route on
// x[Feature] < Threshold (left) vs >= (right); leaves carry the margin
// contribution.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      float64 `json:"leaf"`
	IsLeaf    bool    `json:"is_leaf"`
}

// Tree is a single decision tree stored as a flat node array rooted at 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// BoostedTrees is a gradient-boosted binary classifier exported from the
// offline training pipeline. The ensemble margin is the base score plus
// the sum of leaf values; the probability is its sigmoid.
type BoostedTrees struct {
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

// PredictProba returns P(class=1) for a scaled feature vector.
func (b *BoostedTrees) PredictProba(x []float64) float64 {
	margin := b.BaseScore
	for i := range b.Trees {
		margin += b.Trees[i].score(x)
	}
	return sigmoid(margin)
}

func (t *Tree) score(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf {
			return n.Leaf
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks node references and feature indices against the
// bundle's feature count.
func (b *BoostedTrees) validate(numFeatures int) error {
	if len(b.Trees) == 0 {
		return fmt.Errorf("classifier has no trees")
	}
	for ti, tree := range b.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range tree.Nodes {
			if n.IsLeaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= numFeatures {
				return fmt.Errorf("tree %d node %d references feature %d, bundle has %d features", ti, ni, n.Feature, numFeatures)
			}
			if n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// StandardScaler applies the affine transform fitted offline:
// (x - mean) / scale, per feature.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform scales a raw feature vector. The input is not modified.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

func (s *StandardScaler) validate(numFeatures int) error {
	if len(s.Mean) != numFeatures || len(s.Scale) != numFeatures {
		return fmt.Errorf("scaler dimensions (%d mean, %d scale) do not match %d features", len(s.Mean), len(s.Scale), numFeatures)
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}
	return nil
}
