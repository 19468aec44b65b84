// Package config holds the training configuration and the layer
// descriptions a network is built from, and loads both from YAML run files.
package config

import "fmt"

// Params is the hyperparameter bundle shared by the network and its layers.
// It is read-only once training starts.
type Params struct {
	BatchSize  int     `yaml:"batch_size"`
	NumEpochs  int     `yaml:"num_epochs"`
	Alpha      float64 `yaml:"alpha"`       // learning rate
	Momentum   float64 `yaml:"momentum"`    // velocity decay, [0, 1)
	AdjustRate float64 `yaml:"adjust_rate"` // adaptive gain step, 0 disables gains
	MaxCoef    float64 `yaml:"max_coef"`    // gains are clamped to [1/MaxCoef, MaxCoef]
	Shuffle    bool    `yaml:"shuffle"`
	Seed       int64   `yaml:"seed"` // 0 seeds from the clock
}

// DefaultParams returns the parameters used when a run file leaves them out.
func DefaultParams() Params {
	return Params{
		BatchSize:  50,
		NumEpochs:  1,
		Alpha:      1,
		Momentum:   0.5,
		AdjustRate: 0,
		MaxCoef:    10,
		Shuffle:    true,
	}
}

// Validate verifies the parameters are usable for training.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: params are nil", ErrConfiguration)
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0 (got %d)", ErrConfiguration, p.BatchSize)
	}
	if p.NumEpochs <= 0 {
		return fmt.Errorf("%w: num_epochs must be > 0 (got %d)", ErrConfiguration, p.NumEpochs)
	}
	if p.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be > 0 (got %g)", ErrConfiguration, p.Alpha)
	}
	if p.Momentum < 0 || p.Momentum >= 1 {
		return fmt.Errorf("%w: momentum must be in [0, 1) (got %g)", ErrConfiguration, p.Momentum)
	}
	if p.AdjustRate < 0 || p.AdjustRate >= 1 {
		return fmt.Errorf("%w: adjust_rate must be in [0, 1) (got %g)", ErrConfiguration, p.AdjustRate)
	}
	if p.MaxCoef < 1 {
		return fmt.Errorf("%w: max_coef must be >= 1 (got %g)", ErrConfiguration, p.MaxCoef)
	}
	return nil
}

// Overrides captures CLI supplied values.
type Overrides struct {
	BatchSize int
	NumEpochs int
	Alpha     float64
	Seed      int64
}

// ApplyOverrides updates p using any non-zero override.
func (p *Params) ApplyOverrides(o Overrides) {
	if o.BatchSize > 0 {
		p.BatchSize = o.BatchSize
	}
	if o.NumEpochs > 0 {
		p.NumEpochs = o.NumEpochs
	}
	if o.Alpha > 0 {
		p.Alpha = o.Alpha
	}
	if o.Seed != 0 {
		p.Seed = o.Seed
	}
}
