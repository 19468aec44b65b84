package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lenetYAML = `
params:
  batch_size: 2
  num_epochs: 3
  alpha: 0.5
  momentum: 0.9
  seed: 7
layers:
  - {type: i, mapsize: [28, 28]}
  - {type: c, outputmaps: 6, kernelsize: 5, padding: 2, function: relu}
  - {type: s, scale: [2, 2], function: max}
  - {type: full, length: 10, function: SVM, dropout: 0.25}
`

func TestParse(t *testing.T) {
	file, err := Parse(strings.NewReader(lenetYAML))
	require.NoError(t, err)

	assert.Equal(t, 2, file.Params.BatchSize)
	assert.Equal(t, 3, file.Params.NumEpochs)
	assert.Equal(t, 0.5, file.Params.Alpha)
	assert.Equal(t, 0.9, file.Params.Momentum)
	assert.Equal(t, int64(7), file.Params.Seed)
	// Omitted fields keep their defaults.
	assert.Equal(t, 10.0, file.Params.MaxCoef)
	assert.True(t, file.Params.Shuffle)

	require.Len(t, file.Layers, 4)
	assert.Equal(t, [2]int{28, 28}, file.Layers[0].MapSize)
	assert.Equal(t, 6, file.Layers[1].OutputMaps)
	assert.Equal(t, 2, file.Layers[1].Padding)
	assert.Equal(t, [2]int{2, 2}, file.Layers[2].Scale)
	assert.Equal(t, FuncSVM, file.Layers[3].Function)
	assert.Equal(t, 0.25, file.Layers[3].Dropout)

	kind, err := file.Layers[3].Kind()
	require.NoError(t, err)
	assert.Equal(t, LayerFull, kind)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "params: {batch: 2}\nlayers: [{type: i}]"},
		{"no layers", "params: {batch_size: 2}"},
		{"bad tag", "layers: [{type: i}, {type: x}]"},
		{"bad batch size", "params: {batch_size: 0}\nlayers: [{type: i}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lenetYAML), 0o600))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, file.Layers, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	mutations := map[string]func(*Params){
		"batch":    func(p *Params) { p.BatchSize = 0 },
		"epochs":   func(p *Params) { p.NumEpochs = -1 },
		"alpha":    func(p *Params) { p.Alpha = 0 },
		"momentum": func(p *Params) { p.Momentum = 1 },
		"adjust":   func(p *Params) { p.AdjustRate = -0.1 },
		"maxcoef":  func(p *Params) { p.MaxCoef = 0.5 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			require.ErrorIs(t, p.Validate(), ErrConfiguration)
		})
	}

	var nilParams *Params
	require.ErrorIs(t, nilParams.Validate(), ErrConfiguration)
}

func TestApplyOverrides(t *testing.T) {
	p := DefaultParams()
	p.ApplyOverrides(Overrides{BatchSize: 8, Seed: 3})
	assert.Equal(t, 8, p.BatchSize)
	assert.Equal(t, int64(3), p.Seed)
	assert.Equal(t, 1, p.NumEpochs, "zero override keeps the value")
	assert.Equal(t, 1.0, p.Alpha)
}

func TestParseLayerType(t *testing.T) {
	for tag, want := range map[string]LayerType{
		"i": LayerInput, "Input": LayerInput,
		"c": LayerConv, "conv": LayerConv,
		"s": LayerSubsampling, "subsampling": LayerSubsampling,
		"f": LayerFull, " full ": LayerFull,
	} {
		got, err := ParseLayerType(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}

	_, err := ParseLayerType("pool")
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "conv", LayerConv.String())
}
