package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/config"
)

// Function is the element-wise activation applied by Conv and Full layers.
type Function int

// Activation functions.
const (
	Sigmoid Function = iota
	ReLU
	Linear // the SVM output: identity
)

// String returns the tag the function is configured with.
func (f Function) String() string {
	switch f {
	case Sigmoid:
		return config.FuncSigmoid
	case ReLU:
		return config.FuncReLU
	case Linear:
		return config.FuncSVM
	default:
		return "unknown"
	}
}

// parseFunction maps a tag to a Function. An empty tag means sigmoid.
// allowSVM is set for Full layers only.
func parseFunction(tag string, allowSVM bool) (Function, error) {
	switch tag {
	case "", config.FuncSigmoid:
		return Sigmoid, nil
	case config.FuncReLU:
		return ReLU, nil
	case config.FuncSVM:
		if allowSVM {
			return Linear, nil
		}
	}
	return 0, fmt.Errorf("%w: %q - unknown function", config.ErrConfiguration, tag)
}

// apply replaces every element x of data with f(x).
func (f Function) apply(data []float64) {
	switch f {
	case Sigmoid:
		for i, x := range data {
			data[i] = 1 / (1 + math.Exp(-x))
		}
	case ReLU:
		for i, x := range data {
			if x < 0 {
				data[i] = 0
			}
		}
	case Linear:
	}
}

// backprop multiplies der in place by f'(x), expressed through the
// output y = f(x).
func (f Function) backprop(der, y []float64) {
	switch f {
	case Sigmoid:
		for i, v := range y {
			der[i] *= v * (1 - v)
		}
	case ReLU:
		for i, v := range y {
			if v <= 0 {
				der[i] = 0
			}
		}
	case Linear:
	}
}
