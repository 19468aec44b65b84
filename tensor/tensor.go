// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense row-major float64 tensor.
type Tensor = tensor.Tensor

// Shape is a tensor's dimensions.
type Shape = tensor.Shape

// ErrShapeMismatch reports data whose shape does not fit.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New creates a zero tensor. It panics on a non-positive dimension.
//
// Example:
//
//	data := tensor.New(28, 28, 100) // 100 samples of 28x28
func New(dims ...int) *Tensor {
	return tensor.New(dims...)
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// SelectColumns copies the columns listed in idx into a new matrix.
func SelectColumns(m mat.Matrix, idx []int) *mat.Dense {
	return tensor.SelectColumns(m, idx)
}
