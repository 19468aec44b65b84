// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim exposes the update rule the layers of a Net train with.
//
// # Overview
//
// Every trainable block (convolution kernels, biases, fully connected
// weights) is a Parameter. A batch updates it in two phases:
//
//	p.Update(params, false) // prepare: v *= momentum; w += v
//	// forward and backward pass fill p.Grad()
//	p.Update(params, true)  // commit: step = alpha * gains * grad; w -= step; v -= step
//
// # Adaptive Gains
//
// With AdjustRate > 0, every weight keeps its own gain. A gradient that keeps
// its sign grows the gain by AdjustRate; a sign flip shrinks it by the factor
// (1 - AdjustRate). Gains stay within [1/MaxCoef, MaxCoef].
//
//	params := optim.Params{Alpha: 0.1, Momentum: 0.9, AdjustRate: 0.05, MaxCoef: 10}
//
// # Inspecting a Net
//
// Conv and Full layers return their parameters:
//
//	conv := net.Layer(1).(*nn.Conv)
//	fmt.Println(conv.Kernels().Len(), conv.Biases().Values())
package optim
