package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/tensor"
)

// Input is the first layer of every network. It holds the current batch as a
// single map per sample and has no parameters.
type Input struct {
	base
}

// NewInput creates an uninitialized Input layer.
func NewInput() *Input {
	return &Input{}
}

// Kind returns config.LayerInput.
func (l *Input) Kind() config.LayerType {
	return config.LayerInput
}

// Init reads the map size. An Input layer takes no predecessor.
func (l *Input) Init(desc config.LayerDesc, prev Layer, _ *rand.Rand) error {
	if prev != nil {
		return fmt.Errorf("%w: the input layer cannot have a predecessor", config.ErrConfiguration)
	}
	if desc.MapSize[0] <= 0 || desc.MapSize[1] <= 0 {
		return fmt.Errorf("%w: input mapsize must be positive, got %v", config.ErrConfiguration, desc.MapSize)
	}
	l.mapSize = desc.MapSize
	l.outputMaps = 1
	return nil
}

// Load sets the activation to a batch of samples with axes
// [height, width, samples]. The spatial size must equal MapSize.
func (l *Input) Load(batch *tensor.Tensor) error {
	shape := batch.Shape()
	if len(shape) != 3 {
		return fmt.Errorf("%w: the data array must have 3 dimensions, got %d", tensor.ErrShapeMismatch, len(shape))
	}
	if shape[0] != l.mapSize[0] || shape[1] != l.mapSize[1] {
		return fmt.Errorf("%w: data is %dx%d, the input layer is %dx%d",
			tensor.ErrShapeMismatch, shape[0], shape[1], l.mapSize[0], l.mapSize[1])
	}

	n := shape[2]
	if l.activ == nil || l.batchSize != n {
		l.activ = tensor.New(n, 1, l.mapSize[0], l.mapSize[1])
	}
	l.batchSize = n

	// [h, w, n] -> [n, 1, h, w]
	src := batch.Data()
	dst := l.activ.Data()
	pixels := l.mapSize[0] * l.mapSize[1]
	for p := 0; p < pixels; p++ {
		for s := 0; s < n; s++ {
			dst[s*pixels+p] = src[p*n+s]
		}
	}
	return nil
}

// Forward is a no-op: the activation is set by Load.
func (l *Input) Forward(Layer, Regime) {}

// Backward is a no-op: nothing precedes the input.
func (l *Input) Backward(Layer) {}

// UpdateWeights is a no-op.
func (l *Input) UpdateWeights(*config.Params, bool) {}

// AppendWeights returns dst unchanged.
func (l *Input) AppendWeights(dst []float64) []float64 {
	return dst
}

// SetWeights accepts only an empty slice.
func (l *Input) SetWeights(src []float64) error {
	if len(src) != 0 {
		return fmt.Errorf("input layer has no weights, got %d values", len(src))
	}
	return nil
}

// NumWeights returns 0.
func (l *Input) NumWeights() int {
	return 0
}
