package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is a run file: training parameters plus the layer description
// sequence, in forward order.
//
//	params:
//	  batch_size: 50
//	  num_epochs: 2
//	  alpha: 1
//	layers:
//	  - {type: i, mapsize: [28, 28]}
//	  - {type: c, outputmaps: 6, kernelsize: 5, function: relu}
//	  - {type: s, scale: [2, 2], function: max}
//	  - {type: f, length: 10, function: SVM}
type File struct {
	Params Params      `yaml:"params"`
	Layers []LayerDesc `yaml:"layers"`
}

// Load reads and validates a File from YAML.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a File from r. Fields missing from the document keep their
// DefaultParams values; unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	file := &File{Params: DefaultParams()}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty run file", ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks the parameters and that every layer carries a known tag.
// Ordering rules for the sequence are enforced when the network is built.
func (f *File) Validate() error {
	if err := f.Params.Validate(); err != nil {
		return err
	}
	if len(f.Layers) == 0 {
		return fmt.Errorf("%w: layers array is empty", ErrConfiguration)
	}
	for i, d := range f.Layers {
		if _, err := d.Kind(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
