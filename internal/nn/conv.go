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

// Conv is a 2D convolutional layer with stride 1.
//
// Every output map sees every input map:
//
//	out[m] = f(sum_c kernel[m, c] * in[c] + bias[m])
//
// Kernel shape: [out_maps, in_maps, k, k]
// Bias shape:   [out_maps]
// Output size:  in + 2*padding - k + 1 per spatial dimension
//
// The convolution runs as im2col followed by a matrix product:
// [out_maps, in_maps*k*k] x [in_maps*k*k, out_h*out_w], which lands
// directly in the NCHW layout of one output sample.
type Conv struct {
	base

	inMaps     int
	inSize     [2]int
	kernelSize int
	padding    int
	function   Function

	kernels *optim.Parameter // [out_maps, in_maps, k, k]
	biases  *optim.Parameter // [out_maps]

	cols []*mat.Dense // im2col buffer per sample, reused across batches
}

// NewConv creates an uninitialized Conv layer.
func NewConv() *Conv {
	return &Conv{}
}

// Kind returns config.LayerConv.
func (l *Conv) Kind() config.LayerType {
	return config.LayerConv
}

// Init derives the output size from prev and allocates Xavier-initialized
// kernels and zero biases.
func (l *Conv) Init(desc config.LayerDesc, prev Layer, rng *rand.Rand) error {
	if err := checkPrev(config.LayerConv, prev); err != nil {
		return err
	}
	if prev.Kind() == config.LayerFull {
		return fmt.Errorf("%w: conv layer cannot follow a full layer", config.ErrConfiguration)
	}
	if desc.OutputMaps <= 0 {
		return fmt.Errorf("%w: conv outputmaps must be positive, got %d", config.ErrConfiguration, desc.OutputMaps)
	}
	if desc.KernelSize <= 0 {
		return fmt.Errorf("%w: conv kernelsize must be positive, got %d", config.ErrConfiguration, desc.KernelSize)
	}
	if desc.Padding < 0 {
		return fmt.Errorf("%w: conv padding must be non-negative, got %d", config.ErrConfiguration, desc.Padding)
	}
	fn, err := parseFunction(desc.Function, false)
	if err != nil {
		return err
	}

	l.inMaps = prev.OutputMaps()
	l.inSize = prev.MapSize()
	l.kernelSize = desc.KernelSize
	l.padding = desc.Padding
	l.function = fn
	l.outputMaps = desc.OutputMaps
	for i := range l.mapSize {
		l.mapSize[i] = l.inSize[i] + 2*l.padding - l.kernelSize + 1
		if l.mapSize[i] <= 0 {
			return fmt.Errorf("%w: conv kernel %d with padding %d does not fit input map %v",
				config.ErrConfiguration, l.kernelSize, l.padding, l.inSize)
		}
	}

	k := l.kernelSize
	fanIn := l.inMaps * k * k
	fanOut := l.outputMaps * k * k
	l.kernels = optim.NewParameter("conv.kernels",
		Xavier(fanIn, fanOut, tensor.Shape{l.outputMaps, l.inMaps, k, k}, rng))
	l.biases = optim.NewParameter("conv.biases", Zeros(tensor.Shape{l.outputMaps}))
	return nil
}

func (l *Conv) colDims() (rows, cols int) {
	return l.inMaps * l.kernelSize * l.kernelSize, l.mapSize[0] * l.mapSize[1]
}

// kernelMatrix views the kernels as [out_maps, in_maps*k*k].
func (l *Conv) kernelMatrix(data []float64) *mat.Dense {
	rows, _ := l.colDims()
	return mat.NewDense(l.outputMaps, rows, data)
}

// Forward computes the activation of every output map for every sample.
func (l *Conv) Forward(prev Layer, _ Regime) {
	batch := prev.BatchSize()
	l.resize(batch)

	rows, cols := l.colDims()
	for len(l.cols) < batch {
		l.cols = append(l.cols, mat.NewDense(rows, cols, nil))
	}

	in := prev.Activation()
	kernels := l.kernelMatrix(l.kernels.Values())
	biases := l.biases.Values()
	for n := 0; n < batch; n++ {
		col := l.cols[n]
		l.im2col(col, in.Sample(n))

		out := mat.NewDense(l.outputMaps, cols, l.activ.Sample(n))
		out.Mul(kernels, col)
		for m := 0; m < l.outputMaps; m++ {
			floats.AddConst(biases[m], out.RawRowView(m))
		}
	}
	l.function.apply(l.activ.Data())
}

// Backward accumulates batch-averaged kernel and bias gradients and, when
// prev is not the input, writes prev's derivative.
func (l *Conv) Backward(prev Layer) {
	batch := l.batchSize
	mustMatchBatch("conv", prev, batch)

	// Derivative with respect to the pre-activation output.
	l.function.backprop(l.deriv.Data(), l.activ.Data())

	rows, cols := l.colDims()
	kernels := l.kernelMatrix(l.kernels.Values())
	kernelGrad := l.kernelMatrix(l.kernels.Grad())
	biasGrad := l.biases.Grad()
	l.kernels.ZeroGrad()
	l.biases.ZeroGrad()

	propagate := prev.Kind() != config.LayerInput
	var colGrad, sampleGrad *mat.Dense
	sampleGrad = mat.NewDense(l.outputMaps, rows, nil)
	if propagate {
		colGrad = mat.NewDense(rows, cols, nil)
	}

	for n := 0; n < batch; n++ {
		der := mat.NewDense(l.outputMaps, cols, l.deriv.Sample(n))

		// dK += dOut x col^T
		sampleGrad.Mul(der, l.cols[n].T())
		kernelGrad.Add(kernelGrad, sampleGrad)
		for m := 0; m < l.outputMaps; m++ {
			biasGrad[m] += floats.Sum(der.RawRowView(m))
		}

		if propagate {
			// dCol = K^T x dOut, folded back onto the input map.
			colGrad.Mul(kernels.T(), der)
			l.col2im(prev.Deriv().Sample(n), colGrad)
		}
	}

	scale := 1 / float64(batch)
	floats.Scale(scale, l.kernels.Grad())
	floats.Scale(scale, biasGrad)
}

// im2col unfolds one sample [in_maps, h, w] into col [in_maps*k*k, out_h*out_w].
func (l *Conv) im2col(col *mat.Dense, sample []float64) {
	k, pad := l.kernelSize, l.padding
	h, w := l.inSize[0], l.inSize[1]
	outH, outW := l.mapSize[0], l.mapSize[1]

	for c := 0; c < l.inMaps; c++ {
		plane := sample[c*h*w : (c+1)*h*w]
		for kh := 0; kh < k; kh++ {
			for kw := 0; kw < k; kw++ {
				row := col.RawRowView((c*k+kh)*k + kw)
				for oh := 0; oh < outH; oh++ {
					y := oh + kh - pad
					for ow := 0; ow < outW; ow++ {
						x := ow + kw - pad
						if y >= 0 && y < h && x >= 0 && x < w {
							row[oh*outW+ow] = plane[y*w+x]
						} else {
							row[oh*outW+ow] = 0
						}
					}
				}
			}
		}
	}
}

// col2im folds colGrad back onto one sample's derivative [in_maps, h, w],
// overwriting it.
func (l *Conv) col2im(sample []float64, colGrad *mat.Dense) {
	k, pad := l.kernelSize, l.padding
	h, w := l.inSize[0], l.inSize[1]
	outH, outW := l.mapSize[0], l.mapSize[1]

	clear(sample)
	for c := 0; c < l.inMaps; c++ {
		plane := sample[c*h*w : (c+1)*h*w]
		for kh := 0; kh < k; kh++ {
			for kw := 0; kw < k; kw++ {
				row := colGrad.RawRowView((c*k+kh)*k + kw)
				for oh := 0; oh < outH; oh++ {
					y := oh + kh - pad
					if y < 0 || y >= h {
						continue
					}
					for ow := 0; ow < outW; ow++ {
						x := ow + kw - pad
						if x >= 0 && x < w {
							plane[y*w+x] += row[oh*outW+ow]
						}
					}
				}
			}
		}
	}
}

// UpdateWeights runs one phase of the update rule on kernels and biases.
func (l *Conv) UpdateWeights(params *config.Params, commit bool) {
	l.kernels.Update(params, commit)
	l.biases.Update(params, commit)
}

// AppendWeights appends kernels then biases.
func (l *Conv) AppendWeights(dst []float64) []float64 {
	dst = append(dst, l.kernels.Values()...)
	return append(dst, l.biases.Values()...)
}

// SetWeights loads kernels then biases.
func (l *Conv) SetWeights(src []float64) error {
	if len(src) != l.NumWeights() {
		return fmt.Errorf("conv layer expects %d weights, got %d", l.NumWeights(), len(src))
	}
	nk := l.kernels.Len()
	if err := l.kernels.Load(src[:nk]); err != nil {
		return err
	}
	return l.biases.Load(src[nk:])
}

// NumWeights returns the number of kernel and bias values.
func (l *Conv) NumWeights() int {
	return l.kernels.Len() + l.biases.Len()
}

// Kernels returns the kernel parameter.
func (l *Conv) Kernels() *optim.Parameter {
	return l.kernels
}

// Biases returns the bias parameter.
func (l *Conv) Biases() *optim.Parameter {
	return l.biases
}

// String returns a string representation of the layer.
func (l *Conv) String() string {
	return fmt.Sprintf("Conv(in_maps=%d, out_maps=%d, kernel_size=%d, padding=%d, function=%s, mapsize=%v)",
		l.inMaps, l.outputMaps, l.kernelSize, l.padding, l.function, l.mapSize)
}
