// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"
	"log/slog"
	"math/rand"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/network"
	"github.com/born-ml/convnet/internal/nn"
)

// Net is a chain of layers, input first and fully connected last.
type Net = network.Net

// Option configures a Net.
type Option = network.Option

// New builds a Net from layer descriptions.
//
// Example:
//
//	params := nn.DefaultParams()
//	net, err := nn.New(layers, &params, nn.WithRand(rand.New(rand.NewSource(1))))
func New(layers []LayerDesc, params *Params, opts ...Option) (*Net, error) {
	return network.New(layers, params, opts...)
}

// WithRand sets the random source for initialization, dropout and shuffling.
func WithRand(rng *rand.Rand) Option {
	return network.WithRand(rng)
}

// WithLogger sets the structured logger for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return network.WithLogger(logger)
}

// Layer is one stage of a Net.
type Layer = nn.Layer

// Concrete layers, as returned by Net.Layer.
type (
	Input       = nn.Input
	Conv        = nn.Conv
	Subsampling = nn.Subsampling
	Full        = nn.Full
)

// Regime selects training or classification behavior in Forward.
type Regime = nn.Regime

// Regimes.
const (
	Train    = nn.Train
	Classify = nn.Classify
)

// Configuration

// LayerDesc describes one layer.
type LayerDesc = config.LayerDesc

// LayerType is the normalized layer type tag.
type LayerType = config.LayerType

// Layer types.
const (
	LayerInput       = config.LayerInput
	LayerConv        = config.LayerConv
	LayerSubsampling = config.LayerSubsampling
	LayerFull        = config.LayerFull
)

// Params holds the training hyperparameters.
type Params = config.Params

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return config.DefaultParams()
}

// RunFile is a parsed YAML run file: params plus layers.
type RunFile = config.File

// LoadRunFile reads and validates a YAML run file.
func LoadRunFile(path string) (*RunFile, error) {
	return config.Load(path)
}

// ParseRunFile reads a YAML run file from r.
func ParseRunFile(r io.Reader) (*RunFile, error) {
	return config.Parse(r)
}
