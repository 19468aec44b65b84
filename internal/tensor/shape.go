package tensor

import "fmt"

// Shape lists a tensor's dimensions, outermost first.
type Shape []int

// NumElements returns the product of the dimensions. An empty shape is a
// scalar and holds one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports the first non-positive dimension.
func (s Shape) Validate() error {
	for i, d := range s {
		if d <= 0 {
			return fmt.Errorf("%w: dimension %d of %v is %d", ErrShapeMismatch, i, []int(s), d)
		}
	}
	return nil
}

// strides returns the row-major step of every dimension: the last dimension
// is contiguous.
func (s Shape) strides() []int {
	st := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		st[i] = step
		step *= s[i]
	}
	return st
}
