package nn_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
	"github.com/born-ml/convnet/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds layers left to right the way the network does.
func chain(t *testing.T, rng *rand.Rand, descs ...config.LayerDesc) []nn.Layer {
	t.Helper()
	layers := make([]nn.Layer, len(descs))
	var prev nn.Layer
	for i, d := range descs {
		kind, err := d.Kind()
		require.NoError(t, err)
		var l nn.Layer
		switch kind {
		case config.LayerInput:
			l = nn.NewInput()
		case config.LayerConv:
			l = nn.NewConv()
		case config.LayerSubsampling:
			l = nn.NewSubsampling()
		case config.LayerFull:
			l = nn.NewFull()
		}
		require.NoError(t, l.Init(d, prev, rng), "layer %d", i)
		layers[i] = l
		prev = l
	}
	return layers
}

func forward(t *testing.T, layers []nn.Layer, batch *tensor.Tensor, regime nn.Regime) {
	t.Helper()
	require.NoError(t, layers[0].(*nn.Input).Load(batch))
	for i := 1; i < len(layers); i++ {
		layers[i].Forward(layers[i-1], regime)
	}
}

func randomBatch(rng *rand.Rand, h, w, n int) *tensor.Tensor {
	x := tensor.New(h, w, n)
	for i := range x.Data() {
		x.Data()[i] = rng.Float64()
	}
	return x
}

// linearLoss returns sum(coef * activation) of the last layer.
func linearLoss(layers []nn.Layer, coef []float64) float64 {
	sum := 0.0
	for i, v := range layers[len(layers)-1].Activation().Data() {
		sum += coef[i] * v
	}
	return sum
}

func TestInput_InitAndLoad(t *testing.T) {
	in := nn.NewInput()
	require.ErrorIs(t, in.Init(config.LayerDesc{Type: "i"}, nil, nil), config.ErrConfiguration)
	require.NoError(t, in.Init(config.LayerDesc{Type: "i", MapSize: [2]int{2, 3}}, nil, nil))
	assert.Equal(t, [2]int{2, 3}, in.MapSize())
	assert.Equal(t, 1, in.OutputMaps())
	assert.Equal(t, 0, in.NumWeights())

	// [h=2, w=3, n=2]; sample s pixel p = 10*s + p.
	batch := tensor.New(2, 3, 2)
	for p := 0; p < 6; p++ {
		for s := 0; s < 2; s++ {
			batch.Data()[p*2+s] = float64(10*s + p)
		}
	}
	require.NoError(t, in.Load(batch))
	assert.Equal(t, 2, in.BatchSize())
	assert.Equal(t, tensor.Shape{2, 1, 2, 3}, in.Activation().Shape())
	assert.Equal(t, []float64{10, 11, 12, 13, 14, 15}, in.Activation().Sample(1))

	require.ErrorIs(t, in.Load(tensor.New(3, 3, 2)), tensor.ErrShapeMismatch)
	require.ErrorIs(t, in.Load(tensor.New(2, 3)), tensor.ErrShapeMismatch)
}

func TestInput_RejectsPredecessor(t *testing.T) {
	first := nn.NewInput()
	require.NoError(t, first.Init(config.LayerDesc{MapSize: [2]int{2, 2}}, nil, nil))
	second := nn.NewInput()
	require.ErrorIs(t, second.Init(config.LayerDesc{MapSize: [2]int{2, 2}}, first, nil), config.ErrConfiguration)
}

func TestConv_Init(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{28, 28}},
		config.LayerDesc{Type: "c", OutputMaps: 6, KernelSize: 5, Function: "relu"},
		config.LayerDesc{Type: "c", OutputMaps: 4, KernelSize: 3, Padding: 1},
	)
	conv1 := layers[1].(*nn.Conv)
	assert.Equal(t, [2]int{24, 24}, conv1.MapSize())
	assert.Equal(t, 6, conv1.OutputMaps())
	assert.Equal(t, 6*1*5*5+6, conv1.NumWeights())

	conv2 := layers[2].(*nn.Conv)
	assert.Equal(t, [2]int{24, 24}, conv2.MapSize())
	assert.Equal(t, 4*6*3*3+4, conv2.NumWeights())
	assert.Equal(t, []float64{0, 0, 0, 0}, conv2.Biases().Values())
}

func TestConv_InitErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := nn.NewInput()
	require.NoError(t, in.Init(config.LayerDesc{MapSize: [2]int{4, 4}}, nil, rng))

	bad := []config.LayerDesc{
		{OutputMaps: 0, KernelSize: 3},
		{OutputMaps: 2, KernelSize: 0},
		{OutputMaps: 2, KernelSize: 5},
		{OutputMaps: 2, KernelSize: 3, Padding: -1},
		{OutputMaps: 2, KernelSize: 3, Function: "SVM"},
		{OutputMaps: 2, KernelSize: 3, Function: "tanh"},
	}
	for _, d := range bad {
		require.ErrorIs(t, nn.NewConv().Init(d, in, rng), config.ErrConfiguration, "%+v", d)
	}
	require.ErrorIs(t, nn.NewConv().Init(config.LayerDesc{OutputMaps: 1, KernelSize: 1}, nil, rng), config.ErrConfiguration)
}

// TestConv_ForwardValues tests forward pass with known values.
func TestConv_ForwardValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{3, 3}},
		config.LayerDesc{Type: "c", OutputMaps: 1, KernelSize: 2, Function: "relu"},
	)
	conv := layers[1].(*nn.Conv)
	copy(conv.Kernels().Values(), []float64{1, 2, 3, 4})
	conv.Biases().Values()[0] = 1

	// Input 3x3 with values 1-9 (row-major), one sample.
	batch := tensor.New(3, 3, 1)
	for i := range batch.Data() {
		batch.Data()[i] = float64(i + 1)
	}
	forward(t, layers, batch, nn.Classify)

	// [0,0]: 1*1 + 2*2 + 3*4 + 4*5 = 37, plus bias 1.
	assert.Equal(t, []float64{38, 48, 68, 78}, conv.Activation().Data())
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, conv.Deriv().Shape())
}

func TestConv_Padding(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{2, 2}},
		config.LayerDesc{Type: "c", OutputMaps: 1, KernelSize: 3, Padding: 1, Function: "relu"},
	)
	conv := layers[1].(*nn.Conv)
	k := conv.Kernels().Values()
	clear(k)
	k[4] = 1 // centre tap: identity

	batch, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)
	forward(t, layers, batch, nn.Classify)
	assert.Equal(t, []float64{1, 2, 3, 4}, conv.Activation().Data())
}

func TestSubsampling_MeanAndMax(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	// 3x3 input, scale 2: output 2x2 with partial edge windows.
	batch, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{3, 3, 1})
	require.NoError(t, err)

	mean := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{3, 3}},
		config.LayerDesc{Type: "s", Scale: [2]int{2, 2}, Function: "mean"},
	)
	forward(t, mean, batch, nn.Classify)
	assert.Equal(t, [2]int{2, 2}, mean[1].MapSize())
	assert.Equal(t, []float64{3, 4.5, 7.5, 9}, mean[1].Activation().Data())

	maxPool := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{3, 3}},
		config.LayerDesc{Type: "s", Scale: [2]int{2, 2}, Function: "max"},
	)
	forward(t, maxPool, batch, nn.Classify)
	assert.Equal(t, []float64{5, 6, 8, 9}, maxPool[1].Activation().Data())
	assert.Equal(t, 0, maxPool[1].NumWeights())
}

func TestSubsampling_MaxAllNaN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{2, 2}},
		config.LayerDesc{Type: "c", OutputMaps: 1, KernelSize: 1},
		config.LayerDesc{Type: "s", Scale: [2]int{2, 2}, Function: "max"},
	)
	nan := math.NaN()
	batch, err := tensor.FromSlice([]float64{nan, nan, nan, nan}, tensor.Shape{2, 2, 1})
	require.NoError(t, err)

	forward(t, layers, batch, nn.Train)
	assert.True(t, math.IsNaN(layers[2].Activation().Data()[0]))

	layers[2].Deriv().Data()[0] = 1
	require.NotPanics(t, func() { layers[2].Backward(layers[1]) })
	assert.Equal(t, []float64{1, 0, 0, 0}, layers[1].Deriv().Data(), "derivative goes to the window's first cell")
}

func TestSubsampling_InitErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{4, 4}},
		config.LayerDesc{Type: "f", Length: 2},
	)
	require.NoError(t, nn.NewSubsampling().Init(config.LayerDesc{Scale: [2]int{2, 2}}, layers[0], rng))
	require.ErrorIs(t, nn.NewSubsampling().Init(config.LayerDesc{Scale: [2]int{0, 2}}, layers[0], rng), config.ErrConfiguration)
	require.ErrorIs(t, nn.NewSubsampling().Init(config.LayerDesc{Scale: [2]int{2, 2}, Function: "sum"}, layers[0], rng), config.ErrConfiguration)
	require.ErrorIs(t, nn.NewSubsampling().Init(config.LayerDesc{Scale: [2]int{2, 2}}, layers[1], rng), config.ErrConfiguration)
	require.ErrorIs(t, nn.NewConv().Init(config.LayerDesc{OutputMaps: 1, KernelSize: 1}, layers[1], rng), config.ErrConfiguration)
}

func TestFull_ForwardValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{1, 2}},
		config.LayerDesc{Type: "f", Length: 2, Function: "SVM"},
	)
	full := layers[1].(*nn.Full)
	assert.Equal(t, 2, full.Length())
	assert.Equal(t, nn.Linear, full.Function())
	require.NoError(t, full.SetWeights([]float64{1, 2, 3, 4, 0.5, -0.5}))

	// Two samples: {1, 1} and {2, 0}.
	batch, err := tensor.FromSlice([]float64{1, 2, 1, 0}, tensor.Shape{1, 2, 2})
	require.NoError(t, err)
	forward(t, layers, batch, nn.Classify)

	// Sample 0: [1+2+0.5, 3+4-0.5]; sample 1: [2+0.5, 6-0.5].
	assert.Equal(t, []float64{3.5, 6.5, 2.5, 5.5}, full.Activation().Data())
	assert.Equal(t, tensor.Shape{2, 2, 1, 1}, full.Activation().Shape())
}

func TestFull_DropoutRegimes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{1, 4}},
		config.LayerDesc{Type: "f", Length: 1, Function: "SVM", Dropout: 0.5},
	)
	full := layers[1].(*nn.Full)
	require.NoError(t, full.SetWeights([]float64{1, 1, 1, 1, 0}))

	batch, err := tensor.FromSlice([]float64{1, 1, 1, 1}, tensor.Shape{1, 4, 1})
	require.NoError(t, err)

	forward(t, layers, batch, nn.Classify)
	assert.InDelta(t, 2.0, full.Activation().Data()[0], 1e-12, "classify scales by 1-dropout")

	forward(t, layers, batch, nn.Train)
	out := full.Activation().Data()[0]
	assert.Equal(t, math.Round(out), out, "training keeps whole inputs only")
	assert.GreaterOrEqual(t, out, 0.0)
	assert.LessOrEqual(t, out, 4.0)
}

func TestFull_InitErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := nn.NewInput()
	require.NoError(t, in.Init(config.LayerDesc{MapSize: [2]int{2, 2}}, nil, rng))

	require.ErrorIs(t, nn.NewFull().Init(config.LayerDesc{Length: 0}, in, rng), config.ErrConfiguration)
	require.ErrorIs(t, nn.NewFull().Init(config.LayerDesc{Length: 2, Dropout: 1}, in, rng), config.ErrConfiguration)
	require.ErrorIs(t, nn.NewFull().Init(config.LayerDesc{Length: 2, Function: "softmax"}, in, rng), config.ErrConfiguration)
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{5, 5}},
		config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 2},
		config.LayerDesc{Type: "f", Length: 3},
	)
	for _, l := range layers[1:] {
		w := l.AppendWeights(nil)
		require.Len(t, w, l.NumWeights())
		for i := range w {
			w[i] = float64(i)
		}
		require.NoError(t, l.SetWeights(w))
		assert.Equal(t, w, l.AppendWeights(nil))
		assert.Error(t, l.SetWeights(w[1:]))
	}
}

// parameters lists every trainable block of layers by name.
func parameters(layers []nn.Layer) map[string]*optim.Parameter {
	params := make(map[string]*optim.Parameter)
	for i, l := range layers {
		switch l := l.(type) {
		case *nn.Conv:
			params[fmt.Sprintf("%d.kernels", i)] = l.Kernels()
			params[fmt.Sprintf("%d.biases", i)] = l.Biases()
		case *nn.Full:
			params[fmt.Sprintf("%d.weights", i)] = l.Weights()
			params[fmt.Sprintf("%d.biases", i)] = l.Biases()
		}
	}
	return params
}

// checkGradients compares analytic gradients against central differences of
// sum(coef * activation). reseed runs before every forward pass so that
// stochastic layers see the same mask each time.
func checkGradients(t *testing.T, rng *rand.Rand, layers []nn.Layer, batch *tensor.Tensor, reseed func()) {
	t.Helper()
	batchSize := float64(batch.Shape()[2])
	last := layers[len(layers)-1]
	run := func() {
		reseed()
		forward(t, layers, batch, nn.Train)
	}

	run()
	coef := make([]float64, last.Activation().NumElements())
	for i := range coef {
		coef[i] = rng.Float64()*2 - 1
	}
	copy(last.Deriv().Data(), coef)
	for i := len(layers) - 1; i > 0; i-- {
		layers[i].Backward(layers[i-1])
	}

	const eps = 1e-6
	for name, p := range parameters(layers) {
		analytic := append([]float64(nil), p.Grad()...)
		vals := p.Values()
		for i := range vals {
			orig := vals[i]
			vals[i] = orig + eps
			run()
			plus := linearLoss(layers, coef)
			vals[i] = orig - eps
			run()
			minus := linearLoss(layers, coef)
			vals[i] = orig

			// Layers average gradients over the batch.
			numeric := (plus - minus) / (2 * eps) / batchSize
			assert.InDelta(t, numeric, analytic[i], 1e-6, "%s[%d]", name, i)
		}
	}
}

// TestGradients checks conv, subsampling and full layers together.
func TestGradients(t *testing.T) {
	for _, pool := range []string{"mean", "max"} {
		t.Run(pool, func(t *testing.T) {
			rng := rand.New(rand.NewSource(11))
			layers := chain(t, rng,
				config.LayerDesc{Type: "i", MapSize: [2]int{6, 6}},
				config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 3, Padding: 1, Function: "sigmoid"},
				config.LayerDesc{Type: "s", Scale: [2]int{2, 2}, Function: pool},
				config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 2, Function: "sigmoid"},
				config.LayerDesc{Type: "f", Length: 3, Function: "sigmoid"},
				config.LayerDesc{Type: "f", Length: 2, Function: "SVM"},
			)
			checkGradients(t, rng, layers, randomBatch(rng, 6, 6, 3), func() {})
		})
	}
}

// TestGradients_PartialWindows pools a 7x5 map with 4x3 windows, so the last
// window row and column are cut short.
func TestGradients_PartialWindows(t *testing.T) {
	for _, pool := range []string{"mean", "max"} {
		t.Run(pool, func(t *testing.T) {
			rng := rand.New(rand.NewSource(5))
			layers := chain(t, rng,
				config.LayerDesc{Type: "i", MapSize: [2]int{7, 5}},
				config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 1, Function: "sigmoid"},
				config.LayerDesc{Type: "s", Scale: [2]int{4, 3}, Function: pool},
				config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 1, Function: "sigmoid"},
				config.LayerDesc{Type: "f", Length: 2, Function: "SVM"},
			)
			require.Equal(t, [2]int{2, 2}, layers[2].MapSize())
			checkGradients(t, rng, layers, randomBatch(rng, 7, 5, 2), func() {})
		})
	}
}

// TestGradients_Dropout checks the masked backward path of a dropout layer.
func TestGradients_Dropout(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	layers := chain(t, rng,
		config.LayerDesc{Type: "i", MapSize: [2]int{4, 4}},
		config.LayerDesc{Type: "c", OutputMaps: 2, KernelSize: 2, Function: "sigmoid"},
		config.LayerDesc{Type: "f", Length: 5, Function: "sigmoid", Dropout: 0.5},
		config.LayerDesc{Type: "f", Length: 2, Function: "SVM"},
	)
	batch := randomBatch(rng, 4, 4, 3)
	checkGradients(t, rng, layers, batch, func() { rng.Seed(23) })
}

func TestRegimeString(t *testing.T) {
	assert.Equal(t, "train", nn.Train.String())
	assert.Equal(t, "classify", nn.Classify.String())
	assert.Equal(t, "SVM", nn.Linear.String())
}
