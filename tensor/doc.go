// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors a Net reads and writes.
//
// # Layouts
//
// Sample sets passed to Net.Train and Net.Classify are 3-D:
//
//	data := tensor.New(height, width, samples)
//	data.Set(0.5, y, x, n) // pixel (y, x) of sample n
//
// Layer activations are NCHW: [batch, maps, height, width]. Labels and
// predictions are gonum matrices of shape [classes, samples].
//
// # Memory
//
// Data exposes the row-major backing slice. Sample, Plane and Matrix return
// views sharing that slice; FromSlice and SelectSamples copy.
package tensor
