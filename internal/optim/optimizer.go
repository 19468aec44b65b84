// Package optim implements the parameter update rule used by the layers.
//
// Updates follow a two-phase protocol driven by the network once per batch:
//
//	p.Update(params, false) // prepare: apply the carried-over velocity
//	... forward pass, backward pass (fills p.Grad()) ...
//	p.Update(params, true)  // commit: fold the fresh gradient in
//
// The prepare phase moves the weights along the momentum direction before
// the forward pass, so the gradient is evaluated at the look-ahead point
// (Nesterov momentum).
package optim

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Parameter is a block of trainable values together with the state the
// update rule keeps for it.
type Parameter struct {
	name     string
	values   *tensor.Tensor
	grad     []float64 // filled by the owning layer's Backward
	velocity []float64
	prevGrad []float64
	gains    []float64
	step     []float64 // scratch
}

// NewParameter wraps an initialized tensor as a trainable parameter.
func NewParameter(name string, values *tensor.Tensor) *Parameter {
	n := values.NumElements()
	p := &Parameter{
		name:     name,
		values:   values,
		grad:     make([]float64, n),
		velocity: make([]float64, n),
		prevGrad: make([]float64, n),
		gains:    make([]float64, n),
		step:     make([]float64, n),
	}
	p.resetState()
	return p
}

// Values returns the flat parameter values.
func (p *Parameter) Values() []float64 {
	return p.values.Data()
}

// Grad returns the gradient buffer. Layers write into it during Backward.
func (p *Parameter) Grad() []float64 {
	return p.grad
}

// Len returns the number of values.
func (p *Parameter) Len() int {
	return len(p.grad)
}

// ZeroGrad clears the gradient buffer.
func (p *Parameter) ZeroGrad() {
	clear(p.grad)
}

// Load replaces the values with src and resets the update state, so a
// freshly loaded parameter behaves like a freshly initialized one.
func (p *Parameter) Load(src []float64) error {
	if len(src) != p.Len() {
		return fmt.Errorf("%s: expected %d values, got %d", p.name, p.Len(), len(src))
	}
	copy(p.values.Data(), src)
	p.resetState()
	return nil
}

func (p *Parameter) resetState() {
	clear(p.grad)
	clear(p.velocity)
	clear(p.prevGrad)
	for i := range p.gains {
		p.gains[i] = 1
	}
}
