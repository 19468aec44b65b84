package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/convnet/internal/config"
)

// Subsampling reduces every map over non-overlapping windows.
//
// Window: scale[0] x scale[1], stride equal to the window.
// Output size: ceil(in / scale) per spatial dimension; windows on the
// right and bottom edges may be partial.
//
// Functions:
//   - mean: average of the window (over the cells actually present)
//   - max: largest value in the window; its position is remembered so the
//     derivative is routed back to it
//
// Subsampling has no trainable parameters.
type Subsampling struct {
	base

	inSize [2]int
	scale  [2]int
	useMax bool

	maxIdx []int // per output cell: index of the winning input cell within its plane
}

// NewSubsampling creates an uninitialized Subsampling layer.
func NewSubsampling() *Subsampling {
	return &Subsampling{}
}

// Kind returns config.LayerSubsampling.
func (l *Subsampling) Kind() config.LayerType {
	return config.LayerSubsampling
}

// Init derives the output size from prev.
func (l *Subsampling) Init(desc config.LayerDesc, prev Layer, _ *rand.Rand) error {
	if err := checkPrev(config.LayerSubsampling, prev); err != nil {
		return err
	}
	if prev.Kind() == config.LayerFull {
		return fmt.Errorf("%w: subsampling layer cannot follow a full layer", config.ErrConfiguration)
	}
	if desc.Scale[0] <= 0 || desc.Scale[1] <= 0 {
		return fmt.Errorf("%w: subsampling scale must be positive, got %v", config.ErrConfiguration, desc.Scale)
	}
	switch desc.Function {
	case "", config.FuncMean:
		l.useMax = false
	case config.FuncMax:
		l.useMax = true
	default:
		return fmt.Errorf("%w: %q - unknown subsampling function", config.ErrConfiguration, desc.Function)
	}

	l.inSize = prev.MapSize()
	l.scale = desc.Scale
	l.outputMaps = prev.OutputMaps()
	for i := range l.mapSize {
		l.mapSize[i] = (l.inSize[i] + l.scale[i] - 1) / l.scale[i]
	}
	return nil
}

// window returns the input rows and columns covered by output cell (oh, ow).
func (l *Subsampling) window(oh, ow int) (y0, y1, x0, x1 int) {
	y0 = oh * l.scale[0]
	y1 = min(y0+l.scale[0], l.inSize[0])
	x0 = ow * l.scale[1]
	x1 = min(x0+l.scale[1], l.inSize[1])
	return y0, y1, x0, x1
}

// Forward pools every map of every sample.
func (l *Subsampling) Forward(prev Layer, _ Regime) {
	batch := prev.BatchSize()
	l.resize(batch)

	outH, outW := l.mapSize[0], l.mapSize[1]
	w := l.inSize[1]
	if l.useMax {
		if n := batch * l.outputMaps * outH * outW; len(l.maxIdx) != n {
			l.maxIdx = make([]int, n)
		}
	}

	in := prev.Activation()
	cell := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < l.outputMaps; c++ {
			src := in.Plane(n, c)
			dst := l.activ.Plane(n, c)
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					y0, y1, x0, x1 := l.window(oh, ow)
					if l.useMax {
						bestIdx := y0*w + x0
						best := src[bestIdx]
						for y := y0; y < y1; y++ {
							for x := x0; x < x1; x++ {
								if v := src[y*w+x]; v > best {
									best, bestIdx = v, y*w+x
								}
							}
						}
						dst[oh*outW+ow] = best
						l.maxIdx[cell] = bestIdx
					} else {
						sum := 0.0
						for y := y0; y < y1; y++ {
							for x := x0; x < x1; x++ {
								sum += src[y*w+x]
							}
						}
						dst[oh*outW+ow] = sum / float64((y1-y0)*(x1-x0))
					}
					cell++
				}
			}
		}
	}
}

// Backward spreads the derivative over each window (mean) or routes it to
// the window's maximum (max). Nothing is done when prev is the input.
func (l *Subsampling) Backward(prev Layer) {
	batch := l.batchSize
	mustMatchBatch("subsampling", prev, batch)
	if prev.Kind() == config.LayerInput {
		return
	}

	outH, outW := l.mapSize[0], l.mapSize[1]
	w := l.inSize[1]
	prevDeriv := prev.Deriv()
	cell := 0
	for n := 0; n < batch; n++ {
		for c := 0; c < l.outputMaps; c++ {
			src := l.deriv.Plane(n, c)
			dst := prevDeriv.Plane(n, c)
			clear(dst)
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					d := src[oh*outW+ow]
					if l.useMax {
						dst[l.maxIdx[cell]] += d
					} else {
						y0, y1, x0, x1 := l.window(oh, ow)
						share := d / float64((y1-y0)*(x1-x0))
						for y := y0; y < y1; y++ {
							for x := x0; x < x1; x++ {
								dst[y*w+x] += share
							}
						}
					}
					cell++
				}
			}
		}
	}
}

// UpdateWeights is a no-op.
func (l *Subsampling) UpdateWeights(*config.Params, bool) {}

// AppendWeights returns dst unchanged.
func (l *Subsampling) AppendWeights(dst []float64) []float64 {
	return dst
}

// SetWeights accepts only an empty slice.
func (l *Subsampling) SetWeights(src []float64) error {
	if len(src) != 0 {
		return fmt.Errorf("subsampling layer has no weights, got %d values", len(src))
	}
	return nil
}

// NumWeights returns 0.
func (l *Subsampling) NumWeights() int {
	return 0
}

// String returns a string representation of the layer.
func (l *Subsampling) String() string {
	fn := config.FuncMean
	if l.useMax {
		fn = config.FuncMax
	}
	return fmt.Sprintf("Subsampling(scale=%v, function=%s, mapsize=%v)", l.scale, fn, l.mapSize)
}
