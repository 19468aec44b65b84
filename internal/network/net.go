// Package network orchestrates a chain of layers: construction from layer
// descriptions, forward and backward passes, the two-phase weight update,
// minibatch training, and the flat weight vector.
//
// A Net is not safe for concurrent use.
package network

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/nn"
)

// Option configures a Net.
type Option func(*options)

type options struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// WithRand sets the random source used for weight initialization, dropout
// masks and epoch shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithLogger sets the logger for construction and training progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Net owns an ordered sequence of layers, Input first and Full last.
type Net struct {
	layers []nn.Layer
	params *config.Params
	rng    *rand.Rand
	logger *slog.Logger

	classCoefs []float64
	trainLoss  []float64
	shuffle    bool
}

// New builds the layer graph from descs, left to right. The first
// description must be an input layer and the last a full layer.
//
// Without WithRand the random source is seeded from params.Seed, or from the
// clock when Seed is zero. params is kept by reference and must not change
// during training.
func New(descs []config.LayerDesc, params *config.Params, opts ...Option) (*Net, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := checkSequence(descs); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		seed := params.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		//nolint:gosec // Using math/rand for ML initialization (not security-critical)
		o.rng = rand.New(rand.NewSource(seed))
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	net := &Net{
		layers:  make([]nn.Layer, 0, len(descs)),
		params:  params,
		rng:     o.rng,
		logger:  o.logger,
		shuffle: params.Shuffle,
	}

	net.logger.Info("initializing layers", "count", len(descs))
	var prev nn.Layer
	for i, desc := range descs {
		kind, _ := desc.Kind() // validated by checkSequence
		layer := newLayer(kind)
		if err := layer.Init(desc, prev, net.rng); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		net.logger.Debug("layer initialized", "index", i, "layer", describe(layer))
		net.layers = append(net.layers, layer)
		prev = layer
	}
	net.logger.Info("layers initialized", "weights", net.NumWeights())
	return net, nil
}

// checkSequence validates the shape of the description list before any
// layer is built.
func checkSequence(descs []config.LayerDesc) error {
	if len(descs) == 0 {
		return fmt.Errorf("%w: layer list is empty", ErrConfiguration)
	}
	if len(descs) < 2 {
		return fmt.Errorf("%w: the net must contain at least 2 layers, got %d", ErrConfiguration, len(descs))
	}
	for i, desc := range descs {
		kind, err := desc.Kind()
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		switch {
		case i == 0 && kind != config.LayerInput:
			return fmt.Errorf("%w: the first layer must be the type of %q, got %q",
				ErrConfiguration, config.LayerInput, desc.Type)
		case i > 0 && kind == config.LayerInput:
			return fmt.Errorf("%w: layer %d: only the first layer can be the type of %q",
				ErrConfiguration, i, config.LayerInput)
		case i == len(descs)-1 && kind != config.LayerFull:
			return fmt.Errorf("%w: the last layer must be the type of %q, got %q",
				ErrConfiguration, config.LayerFull, desc.Type)
		}
	}
	return nil
}

func newLayer(kind config.LayerType) nn.Layer {
	switch kind {
	case config.LayerInput:
		return nn.NewInput()
	case config.LayerConv:
		return nn.NewConv()
	case config.LayerSubsampling:
		return nn.NewSubsampling()
	default:
		return nn.NewFull()
	}
}

func describe(layer nn.Layer) string {
	if s, ok := layer.(fmt.Stringer); ok {
		return s.String()
	}
	return layer.Kind().String()
}

// Len returns the number of layers.
func (n *Net) Len() int {
	return len(n.layers)
}

// Layer returns the i-th layer.
func (n *Net) Layer(i int) nn.Layer {
	return n.layers[i]
}

func (n *Net) input() *nn.Input {
	return n.layers[0].(*nn.Input)
}

func (n *Net) last() *nn.Full {
	return n.layers[len(n.layers)-1].(*nn.Full)
}

// Classes returns the output length of the terminal layer.
func (n *Net) Classes() int {
	return n.last().Length()
}

// MapSize returns the spatial size the input layer expects.
func (n *Net) MapSize() [2]int {
	return n.input().MapSize()
}

// Shuffle reports whether training visits samples in random order.
func (n *Net) Shuffle() bool {
	return n.shuffle
}

// SetShuffle enables or disables random sample order.
func (n *Net) SetShuffle(on bool) {
	n.shuffle = on
}

// TrainLoss returns a copy of the per-batch loss history of the last Train
// call, epoch-major.
func (n *Net) TrainLoss() []float64 {
	return append([]float64(nil), n.trainLoss...)
}

// ClassCoefs returns a copy of the per-class balancing coefficients set by
// the last Train call.
func (n *Net) ClassCoefs() []float64 {
	return append([]float64(nil), n.classCoefs...)
}
