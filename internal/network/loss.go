package network

import (
	"fmt"

	"github.com/born-ml/convnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Loss is the objective selected by the terminal layer's function.
type Loss int

// Losses.
const (
	// Hinge is the squared hinge loss of an SVM output layer. The parameter
	// regularization term of the textbook objective is not included.
	Hinge Loss = iota
	// SquaredError is half the squared distance of a sigmoid output layer.
	SquaredError
)

// String returns the loss name.
func (l Loss) String() string {
	if l == SquaredError {
		return "squared-error"
	}
	return "hinge"
}

// lossFor resolves the loss of a terminal function. There is no default.
func lossFor(fn nn.Function) (Loss, error) {
	switch fn {
	case nn.Linear:
		return Hinge, nil
	case nn.Sigmoid:
		return SquaredError, nil
	default:
		return 0, fmt.Errorf("%w: %q - no loss is defined for the last layer function", ErrConfiguration, fn)
	}
}

// eval writes the derivative of the loss with respect to pred into der and
// returns the loss averaged over the batch. pred and der are [batch, classes];
// labels is [classes, batch].
func (l Loss) eval(der, pred *mat.Dense, labels mat.Matrix) float64 {
	batch, classes := pred.Dims()
	sum := 0.0
	for s := 0; s < batch; s++ {
		for c := 0; c < classes; c++ {
			y, t := pred.At(s, c), labels.At(c, s)
			switch l {
			case Hinge:
				margin := max(0, 1-y*t)
				der.Set(s, c, -2*margin*t)
				sum += margin * margin
			case SquaredError:
				d := y - t
				der.Set(s, c, d)
				sum += d * d
			}
		}
	}
	if l == SquaredError {
		sum /= 2
	}
	return sum / float64(batch)
}

// remapHingeLabels maps {0, 1} labels to {-1, +1} in place.
func remapHingeLabels(labels *mat.Dense) {
	labels.Apply(func(_, _ int, v float64) float64 {
		return 2*v - 1
	}, labels)
}
