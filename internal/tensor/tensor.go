// Package tensor provides the numeric containers used by the network.
//
// Two layouts are in use:
//   - Activations are 4-D NCHW tensors: [batch, maps, height, width].
//   - Sample tensors handed to the network are 3-D: [height, width, samples].
//
// Two-dimensional work (label matrices, predictions, fully connected
// transforms) is done with gonum's mat.Dense; Matrix returns a Dense
// view that shares the tensor's buffer.
package tensor

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense, row-major float64 array of arbitrary rank.
//
// Example:
//
//	t := tensor.New(2, 1, 28, 28) // two single-map 28x28 samples
//	t.Set(0.5, 0, 0, 3, 4)
type Tensor struct {
	shape   Shape
	strides []int
	data    []float64
}

// New creates a zero-filled tensor with the given dimensions.
// Panics if any dimension is not positive.
func New(dims ...int) *Tensor {
	shape := Shape(slices.Clone(dims))
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: %v", err))
	}
	return &Tensor{
		shape:   shape,
		strides: shape.strides(),
		data:    make([]float64, shape.NumElements()),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}

	t := New(shape...)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying buffer.
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}

	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.strides[i]
	}
	return offset
}

// Zero sets every element to zero.
func (t *Tensor) Zero() {
	clear(t.data)
}

// Sample returns the contiguous slice holding sample n of a tensor whose
// leading dimension is the batch (NCHW or [N, features]).
func (t *Tensor) Sample(n int) []float64 {
	size := t.strides[0]
	return t.data[n*size : (n+1)*size]
}

// Plane returns the height*width slice for sample n, map c of an NCHW tensor.
func (t *Tensor) Plane(n, c int) []float64 {
	if len(t.shape) != 4 {
		panic(fmt.Sprintf("tensor.Plane: expected 4D tensor, got shape %v", t.shape))
	}
	size := t.strides[1]
	start := n*t.strides[0] + c*size
	return t.data[start : start+size]
}

// Matrix returns a Dense view of the tensor as [dim0, rest].
// The view shares memory with the tensor.
func (t *Tensor) Matrix() *mat.Dense {
	rows := t.shape[0]
	return mat.NewDense(rows, len(t.data)/rows, t.data)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[float64]%v", t.shape)
}
