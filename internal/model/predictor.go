package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Predictor turns a feature matrix into one prediction per row
type Predictor interface {
	Predict(x mat.Matrix) ([]float64, error)
}

// Artifact kinds
const (
	KindLinear = "linear"
	KindForest = "forest"
)

var (
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrFeatureMismatch = errors.New("feature count mismatch")
)

// Linear is a fitted linear regression: y = X·β + b
type Linear struct {
	features     int
	intercept    float64
	coefficients *mat.VecDense
}

// NewLinear creates a linear model from its coefficients
func NewLinear(intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: linear model without coefficients", ErrInvalidArtifact)
	}
	return &Linear{
		features:     len(coefficients),
		intercept:    intercept,
		coefficients: mat.NewVecDense(len(coefficients), append([]float64(nil), coefficients...)),
	}, nil
}

// Predict evaluates the model for every row of x
func (l *Linear) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != l.features {
		return nil, fmt.Errorf("%w: model expects %d, got %d", ErrFeatureMismatch, l.features, cols)
	}

	var y mat.VecDense
	y.MulVec(x, l.coefficients)

	out := make([]float64, rows)
	for i := range out {
		out[i] = y.AtVec(i) + l.intercept
	}
	return out, nil
}

// Node is one decision tree node. A node with Left < 0 is a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a regression tree stored as a flat node array rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) eval(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks node references so eval can never index out of range or loop
func (t Tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left < 0 {
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// Forest averages the output of its regression trees
type Forest struct {
	features int
	trees    []Tree
}

// NewForest creates a forest model and validates every tree
func NewForest(features int, trees []Tree) (*Forest, error) {
	if features <= 0 {
		return nil, fmt.Errorf("%w: forest without features", ErrInvalidArtifact)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest without trees", ErrInvalidArtifact)
	}
	for i, t := range trees {
		if err := t.validate(features); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidArtifact, i, err)
		}
	}
	return &Forest{features: features, trees: trees}, nil
}

// Predict evaluates the forest for every row of x
func (f *Forest) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != f.features {
		return nil, fmt.Errorf("%w: model expects %d, got %d", ErrFeatureMismatch, f.features, cols)
	}

	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		var sum float64
		for _, t := range f.trees {
			sum += t.eval(row)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}
