package network

import (
	"fmt"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Forward loads batch [height, width, samples] into the input layer and runs
// every layer in order. It returns the terminal activation as a new
// [classes, samples] matrix.
func (n *Net) Forward(batch *tensor.Tensor, regime nn.Regime) (*mat.Dense, error) {
	if batch == nil {
		return nil, fmt.Errorf("%w: no data", ErrShapeMismatch)
	}
	if err := n.input().Load(batch); err != nil {
		return nil, err
	}
	for i := 1; i < len(n.layers); i++ {
		n.layers[i].Forward(n.layers[i-1], regime)
	}
	return n.prediction(), nil
}

func (n *Net) prediction() *mat.Dense {
	return mat.DenseCopyOf(n.last().Activation().Matrix().T())
}

// Backward sets the terminal derivative from labels [classes, samples] and
// propagates it down to the first layer after the input, accumulating
// parameter gradients. It returns the batch loss.
//
// Labels must match the batch of the last Forward. Nothing is modified when
// they do not.
func (n *Net) Backward(labels mat.Matrix) (float64, error) {
	last := n.last()
	loss, err := lossFor(last.Function())
	if err != nil {
		return 0, err
	}
	if last.Activation() == nil {
		return 0, fmt.Errorf("%w: backward before any forward pass", ErrShapeMismatch)
	}
	if labels == nil {
		return 0, fmt.Errorf("%w: no labels", ErrShapeMismatch)
	}
	classes, batch := labels.Dims()
	if batch != last.BatchSize() {
		return 0, fmt.Errorf("%w: %d label columns, the last batch has %d samples",
			ErrShapeMismatch, batch, last.BatchSize())
	}
	if classes != last.Length() {
		return 0, fmt.Errorf("%w: %d label rows, the last layer has %d classes",
			ErrShapeMismatch, classes, last.Length())
	}

	value := loss.eval(last.Deriv().Matrix(), last.Activation().Matrix(), labels)
	for i := len(n.layers) - 1; i > 0; i-- {
		n.layers[i].Backward(n.layers[i-1])
	}
	return value, nil
}

// UpdateWeights runs one phase of the update rule on every layer in forward
// order: prepare (commit false) before a batch's Forward, commit after its
// Backward.
func (n *Net) UpdateWeights(commit bool) {
	for i := 1; i < len(n.layers); i++ {
		n.layers[i].UpdateWeights(n.params, commit)
	}
}

// checkData validates a sample tensor against the input layer and returns
// the sample count.
func (n *Net) checkData(data *tensor.Tensor) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: no data", ErrShapeMismatch)
	}
	shape := data.Shape()
	if len(shape) != 3 {
		return 0, fmt.Errorf("%w: the data array must have 3 dimensions, got %d", ErrShapeMismatch, len(shape))
	}
	size := n.MapSize()
	if shape[0] != size[0] || shape[1] != size[1] {
		return 0, fmt.Errorf("%w: data is %dx%d, the first layer is %dx%d",
			ErrShapeMismatch, shape[0], shape[1], size[0], size[1])
	}
	if shape[2] == 0 {
		return 0, fmt.Errorf("%w: data holds no samples", ErrShapeMismatch)
	}
	return shape[2], nil
}

// Classify runs a forward pass in the classify regime over data
// [height, width, samples] and returns predictions [classes, samples].
func (n *Net) Classify(data *tensor.Tensor) (*mat.Dense, error) {
	samples, err := n.checkData(data)
	if err != nil {
		return nil, err
	}
	n.logger.Info("classification started", "samples", samples)
	pred, err := n.Forward(data, nn.Classify)
	if err != nil {
		return nil, err
	}
	n.logger.Info("classification finished")
	return pred, nil
}

// Kinds returns the layer types in graph order.
func (n *Net) Kinds() []config.LayerType {
	kinds := make([]config.LayerType, len(n.layers))
	for i, l := range n.layers {
		kinds[i] = l.Kind()
	}
	return kinds
}
