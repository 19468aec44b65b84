package config

import (
	"fmt"
	"strings"
)

// LayerType tags a layer description.
type LayerType string

// Layer type tags. The short forms are the canonical ones.
const (
	LayerInput       LayerType = "i"
	LayerConv        LayerType = "c"
	LayerSubsampling LayerType = "s"
	LayerFull        LayerType = "f"
)

var layerTypeAliases = map[string]LayerType{
	"i":           LayerInput,
	"input":       LayerInput,
	"c":           LayerConv,
	"conv":        LayerConv,
	"s":           LayerSubsampling,
	"subsampling": LayerSubsampling,
	"f":           LayerFull,
	"full":        LayerFull,
}

// ParseLayerType normalizes a type tag. Unknown tags are an ErrConfiguration.
func ParseLayerType(tag string) (LayerType, error) {
	lt, ok := layerTypeAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", fmt.Errorf("%w: %q - unknown type of the layer", ErrConfiguration, tag)
	}
	return lt, nil
}

// String returns a human-readable layer type name.
func (lt LayerType) String() string {
	switch lt {
	case LayerInput:
		return "input"
	case LayerConv:
		return "conv"
	case LayerSubsampling:
		return "subsampling"
	case LayerFull:
		return "full"
	default:
		return "unknown"
	}
}

// Function tags understood by the layers.
const (
	FuncSigmoid = "sigmoid"
	FuncReLU    = "relu"
	FuncSVM     = "SVM"
	FuncMean    = "mean"
	FuncMax     = "max"
)

// LayerDesc is one record of a layer description sequence. Only the fields
// relevant to Type are read:
//
//	i: MapSize
//	c: OutputMaps, KernelSize, Padding, Function (sigmoid, relu)
//	s: Scale, Function (mean, max)
//	f: Length, Function (sigmoid, relu, SVM), Dropout
type LayerDesc struct {
	Type       string  `yaml:"type"`
	MapSize    [2]int  `yaml:"mapsize"`
	OutputMaps int     `yaml:"outputmaps"`
	KernelSize int     `yaml:"kernelsize"`
	Padding    int     `yaml:"padding"`
	Scale      [2]int  `yaml:"scale"`
	Function   string  `yaml:"function"`
	Length     int     `yaml:"length"`
	Dropout    float64 `yaml:"dropout"`
}

// Kind parses the descriptor's type tag.
func (d LayerDesc) Kind() (LayerType, error) {
	return ParseLayerType(d.Type)
}
