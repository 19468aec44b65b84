// Package nn implements the layers a convolutional network is built from.
//
// This package provides:
//   - Layer interface: the capability set the network drives
//   - Input: holds the current batch of samples
//   - Conv: convolution over all input maps, followed by an activation function
//   - Subsampling: mean or max pooling over non-overlapping windows
//   - Full: fully connected transform, optionally with dropout
//
// Layers are initialized left to right, each from its description and a
// reference to its predecessor:
//
//	in := nn.NewInput()
//	_ = in.Init(config.LayerDesc{Type: "i", MapSize: [2]int{28, 28}}, nil, rng)
//	conv := nn.NewConv()
//	_ = conv.Init(config.LayerDesc{Type: "c", OutputMaps: 6, KernelSize: 5}, in, rng)
//
// Activations are NCHW tensors: [batch, maps, height, width]. A Full layer
// reports map size 1x1 and one map per output, so its activation is
// [batch, length, 1, 1].
package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/tensor"
)

// Regime selects training or inference behavior for layers with
// stochastic parts (dropout).
type Regime int

// Regimes.
const (
	Train Regime = iota
	Classify
)

// String returns the regime name.
func (r Regime) String() string {
	if r == Classify {
		return "classify"
	}
	return "train"
}

// Layer is one stage of the network.
//
// The network calls Init once, then per batch:
//
//	UpdateWeights(params, false)
//	Forward(prev, Train)
//	Backward(prev)             // after the loss has set the last layer's Deriv
//	UpdateWeights(params, true)
//
// Forward reads prev's activation and replaces its own; the batch dimension
// follows prev, every other dimension is fixed by Init. Forward also resets
// the layer's Deriv to zeros of the activation's shape.
//
// Backward reads the layer's own Deriv and prev's activation, accumulates
// parameter gradients, and writes prev's Deriv unless prev is the Input
// layer.
type Layer interface {
	Kind() config.LayerType
	Init(desc config.LayerDesc, prev Layer, rng *rand.Rand) error
	Forward(prev Layer, regime Regime)
	Backward(prev Layer)
	UpdateWeights(params *config.Params, commit bool)

	// AppendWeights appends the layer's parameters to dst, weights first,
	// then biases.
	AppendWeights(dst []float64) []float64
	// SetWeights loads exactly NumWeights values in AppendWeights order.
	SetWeights(src []float64) error
	NumWeights() int

	MapSize() [2]int
	OutputMaps() int
	BatchSize() int
	Activation() *tensor.Tensor
	Deriv() *tensor.Tensor
}

// base carries the attributes shared by every layer.
type base struct {
	mapSize    [2]int
	outputMaps int
	batchSize  int
	activ      *tensor.Tensor
	deriv      *tensor.Tensor
}

// MapSize returns the spatial size of each output map.
func (b *base) MapSize() [2]int {
	return b.mapSize
}

// OutputMaps returns the number of output maps.
func (b *base) OutputMaps() int {
	return b.outputMaps
}

// BatchSize returns the number of samples currently loaded.
func (b *base) BatchSize() int {
	return b.batchSize
}

// Activation returns the output of the last Forward.
func (b *base) Activation() *tensor.Tensor {
	return b.activ
}

// Deriv returns the loss derivative with respect to Activation.
func (b *base) Deriv() *tensor.Tensor {
	return b.deriv
}

// numel returns maps*height*width, the per-sample activation size.
func (b *base) numel() int {
	return b.outputMaps * b.mapSize[0] * b.mapSize[1]
}

// resize sets the batch size, reallocating the activation and derivative
// only when it changed. The derivative is always cleared.
func (b *base) resize(batch int) {
	if b.activ == nil || b.batchSize != batch {
		b.activ = tensor.New(batch, b.outputMaps, b.mapSize[0], b.mapSize[1])
		b.deriv = tensor.New(batch, b.outputMaps, b.mapSize[0], b.mapSize[1])
	} else {
		b.deriv.Zero()
	}
	b.batchSize = batch
}

// checkPrev validates the predecessor every non-Input layer needs.
func checkPrev(kind config.LayerType, prev Layer) error {
	if prev == nil {
		return fmt.Errorf("%w: %s layer needs a preceding layer", config.ErrConfiguration, kind)
	}
	return nil
}

// mustMatchBatch panics if prev's activation was not produced for the
// batch size the layer is working on.
func mustMatchBatch(name string, prev Layer, batch int) {
	if prev.BatchSize() != batch {
		panic(fmt.Sprintf("%s: previous layer holds %d samples, expected %d", name, prev.BatchSize(), batch))
	}
}
