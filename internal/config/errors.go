package config

import "errors"

// ErrConfiguration reports a malformed training configuration or layer
// description: an empty or misordered layer sequence, an unknown type or
// function tag, or an out-of-range hyperparameter.
var ErrConfiguration = errors.New("configuration error")
