package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Full implements a fully connected layer.
//
// Performs the transformation: y = f(x @ W.T + b)
// where:
//   - x is the previous activation flattened to [batch_size, in_features]
//   - W is the weight matrix with shape [length, in_features]
//   - b is the bias vector with shape [length]
//   - y is the activation with shape [batch_size, length, 1, 1]
//
// With Dropout set, training drops every input feature with that
// probability; classification keeps all features and scales them by
// (1 - Dropout) instead.
type Full struct {
	base

	inFeatures int
	function   Function
	dropout    float64
	rng        *rand.Rand

	weights *optim.Parameter // [length, in_features]
	biases  *optim.Parameter // [length]

	input *mat.Dense // effective input of the last Forward
	mask  []float64  // dropout mask of the last training Forward
}

// NewFull creates an uninitialized Full layer.
func NewFull() *Full {
	return &Full{}
}

// Kind returns config.LayerFull.
func (l *Full) Kind() config.LayerType {
	return config.LayerFull
}

// Init flattens prev's output size into the input width and allocates
// Xavier-initialized weights and zero biases.
func (l *Full) Init(desc config.LayerDesc, prev Layer, rng *rand.Rand) error {
	if err := checkPrev(config.LayerFull, prev); err != nil {
		return err
	}
	if desc.Length <= 0 {
		return fmt.Errorf("%w: full layer length must be positive, got %d", config.ErrConfiguration, desc.Length)
	}
	if desc.Dropout < 0 || desc.Dropout >= 1 {
		return fmt.Errorf("%w: dropout must be in [0, 1), got %g", config.ErrConfiguration, desc.Dropout)
	}
	fn, err := parseFunction(desc.Function, true)
	if err != nil {
		return err
	}

	prevSize := prev.MapSize()
	l.inFeatures = prev.OutputMaps() * prevSize[0] * prevSize[1]
	l.function = fn
	l.dropout = desc.Dropout
	l.rng = rng
	l.outputMaps = desc.Length
	l.mapSize = [2]int{1, 1}

	l.weights = optim.NewParameter("full.weights",
		Xavier(l.inFeatures, desc.Length, tensor.Shape{desc.Length, l.inFeatures}, rng))
	l.biases = optim.NewParameter("full.biases", Zeros(tensor.Shape{desc.Length}))
	return nil
}

// Length returns the number of outputs.
func (l *Full) Length() int {
	return l.outputMaps
}

// Function returns the activation function.
func (l *Full) Function() Function {
	return l.function
}

func (l *Full) weightMatrix(data []float64) *mat.Dense {
	return mat.NewDense(l.outputMaps, l.inFeatures, data)
}

// Forward computes y = f(x @ W.T + b) for the whole batch.
func (l *Full) Forward(prev Layer, regime Regime) {
	batch := prev.BatchSize()
	l.resize(batch)

	x := prev.Activation().Matrix() // [batch, in_features]
	if _, c := x.Dims(); c != l.inFeatures {
		panic(fmt.Sprintf("full: expected input with %d features, got %d", l.inFeatures, c))
	}

	l.mask = nil
	switch {
	case l.dropout == 0:
		l.input = x
	case regime == Train:
		l.input = mat.DenseCopyOf(x)
		l.mask = make([]float64, batch*l.inFeatures)
		for i := range l.mask {
			//nolint:gosec // Using math/rand for dropout (not security-critical)
			if l.rng.Float64() >= l.dropout {
				l.mask[i] = 1
			}
		}
		l.input.MulElem(l.input, mat.NewDense(batch, l.inFeatures, l.mask))
	default:
		l.input = mat.DenseCopyOf(x)
		l.input.Scale(1-l.dropout, l.input)
	}

	out := l.activ.Matrix() // [batch, length]
	out.Mul(l.input, l.weightMatrix(l.weights.Values()).T())
	biases := l.biases.Values()
	for n := 0; n < batch; n++ {
		floats.Add(out.RawRowView(n), biases)
	}
	l.function.apply(l.activ.Data())
}

// Backward accumulates batch-averaged weight and bias gradients and, when
// prev is not the input, writes prev's derivative.
func (l *Full) Backward(prev Layer) {
	batch := l.batchSize
	mustMatchBatch("full", prev, batch)

	l.function.backprop(l.deriv.Data(), l.activ.Data())
	der := l.deriv.Matrix() // [batch, length]

	// dW = dOut^T x input / batch
	weightGrad := l.weightMatrix(l.weights.Grad())
	weightGrad.Mul(der.T(), l.input)
	weightGrad.Scale(1/float64(batch), weightGrad)

	biasGrad := l.biases.Grad()
	clear(biasGrad)
	for n := 0; n < batch; n++ {
		floats.Add(biasGrad, der.RawRowView(n))
	}
	floats.Scale(1/float64(batch), biasGrad)

	if prev.Kind() == config.LayerInput {
		return
	}

	// dX = dOut x W
	prevDeriv := prev.Deriv().Matrix()
	prevDeriv.Mul(der, l.weightMatrix(l.weights.Values()))
	if l.mask != nil {
		prevDeriv.MulElem(prevDeriv, mat.NewDense(batch, l.inFeatures, l.mask))
	}
}

// UpdateWeights runs one phase of the update rule on weights and biases.
func (l *Full) UpdateWeights(params *config.Params, commit bool) {
	l.weights.Update(params, commit)
	l.biases.Update(params, commit)
}

// AppendWeights appends weights (row-major) then biases.
func (l *Full) AppendWeights(dst []float64) []float64 {
	dst = append(dst, l.weights.Values()...)
	return append(dst, l.biases.Values()...)
}

// SetWeights loads weights then biases.
func (l *Full) SetWeights(src []float64) error {
	if len(src) != l.NumWeights() {
		return fmt.Errorf("full layer expects %d weights, got %d", l.NumWeights(), len(src))
	}
	nw := l.weights.Len()
	if err := l.weights.Load(src[:nw]); err != nil {
		return err
	}
	return l.biases.Load(src[nw:])
}

// NumWeights returns the number of weight and bias values.
func (l *Full) NumWeights() int {
	return l.weights.Len() + l.biases.Len()
}

// Weights returns the weight parameter.
func (l *Full) Weights() *optim.Parameter {
	return l.weights
}

// Biases returns the bias parameter.
func (l *Full) Biases() *optim.Parameter {
	return l.biases
}

// String returns a string representation of the layer.
func (l *Full) String() string {
	return fmt.Sprintf("Full(in_features=%d, length=%d, function=%s, dropout=%g)",
		l.inFeatures, l.outputMaps, l.function, l.dropout)
}
