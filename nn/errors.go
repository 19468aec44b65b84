// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import "github.com/born-ml/convnet/internal/network"

// Errors returned by Net and run file loading. Match them with errors.Is.
var (
	ErrConfiguration = network.ErrConfiguration
	ErrShapeMismatch = network.ErrShapeMismatch
	ErrSizeMismatch  = network.ErrSizeMismatch
)
