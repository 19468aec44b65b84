package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SelectSamples gathers the samples listed in idx from a sample tensor with
// axes [height, width, samples] into a new tensor [height, width, len(idx)].
func (t *Tensor) SelectSamples(idx []int) (*Tensor, error) {
	if len(t.shape) != 3 {
		return nil, fmt.Errorf("%w: sample tensor must have 3 dimensions, got %d", ErrShapeMismatch, len(t.shape))
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: empty sample selection", ErrShapeMismatch)
	}
	h, w, n := t.shape[0], t.shape[1], t.shape[2]
	for _, j := range idx {
		if j < 0 || j >= n {
			return nil, fmt.Errorf("%w: sample index %d out of range [0, %d)", ErrShapeMismatch, j, n)
		}
	}

	out := New(h, w, len(idx))
	pixels := h * w
	for p := 0; p < pixels; p++ {
		src := t.data[p*n : (p+1)*n]
		dst := out.data[p*len(idx) : (p+1)*len(idx)]
		for k, j := range idx {
			dst[k] = src[j]
		}
	}
	return out, nil
}

// SelectColumns copies the columns listed in idx into a new matrix. It is the
// label-matrix counterpart of SelectSamples.
func SelectColumns(m mat.Matrix, idx []int) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, len(idx), nil)
	for k, j := range idx {
		if j < 0 || j >= cols {
			panic(fmt.Sprintf("tensor.SelectColumns: column %d out of range [0, %d)", j, cols))
		}
		for i := 0; i < rows; i++ {
			out.Set(i, k, m.At(i, j))
		}
	}
	return out
}
