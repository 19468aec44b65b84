// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/tensor"
)

// Parameter is a trainable block of values with its update state.
type Parameter = optim.Parameter

// Params holds the hyperparameters the update rule reads.
type Params = config.Params

// NewParameter wraps values as a trainable parameter.
//
// Example:
//
//	w := tensor.New(3, 4)
//	p := optim.NewParameter("weights", w)
//	copy(p.Grad(), grad)
//	p.Update(&params, true)
func NewParameter(name string, values *tensor.Tensor) *Parameter {
	return optim.NewParameter(name, values)
}
