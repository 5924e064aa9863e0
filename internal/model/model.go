package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Params is a snapshot of a classifier's learned values: weight is
// (classes × features) and bias has one entry per class.
type Params struct {
	Weight *tensor.Dense
	Bias   *tensor.Dense
}

// Classifier produces unnormalized class scores for a batch of rows
// without tracking gradients.
type Classifier interface {
	Scores(x *tensor.Dense) (*tensor.Dense, error)
}

// Predict returns the highest-scoring class for every row of x.
func Predict(c Classifier, x *tensor.Dense) ([]int, error) {
	scores, err := c.Scores(x)
	if err != nil {
		return nil, err
	}
	best, err := scores.Argmax(1)
	if err != nil {
		return nil, fmt.Errorf("argmax: %w", err)
	}
	switch v := best.Data().(type) {
	case []int:
		return v, nil
	case int:
		return []int{v}, nil
	default:
		return nil, fmt.Errorf("argmax: unexpected result %T", v)
	}
}

// FromMatrix copies a gonum matrix into a row-major float64 tensor.
func FromMatrix(m mat.Matrix) *tensor.Dense {
	rows, cols := m.Dims()
	backing := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			backing = append(backing, m.At(i, j))
		}
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
}

// OneHot encodes labels as a (len(labels) × classes) indicator tensor.
func OneHot(labels []int, classes int) *tensor.Dense {
	backing := make([]float64, len(labels)*classes)
	for i, l := range labels {
		backing[i*classes+l] = 1
	}
	return tensor.New(tensor.WithShape(len(labels), classes), tensor.WithBacking(backing))
}
