package network

import (
	"errors"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/tensor"
)

// Error classes returned by the network. Match them with errors.Is.
var (
	// ErrConfiguration: malformed layer sequence, unknown layer type or
	// function tag.
	ErrConfiguration = config.ErrConfiguration
	// ErrShapeMismatch: data or labels disagree with the input or terminal
	// layer, or with the batch currently loaded.
	ErrShapeMismatch = tensor.ErrShapeMismatch
	// ErrSizeMismatch: a flat weight vector that does not match the
	// network's parameter count.
	ErrSizeMismatch = errors.New("size mismatch")
)
