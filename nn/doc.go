// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a convolutional network built from a list of layer
// descriptions and trained with minibatch gradient descent.
//
// # Overview
//
// This package contains:
//   - Net: the layer chain, its forward and backward passes and training loop
//   - Layer descriptions: input ("i"), convolution ("c"), subsampling ("s"),
//     fully connected ("f")
//   - Params: batch size, epochs, learning rate, momentum, adaptive gains
//   - Run files: YAML documents holding params and layers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/nn"
//	)
//
//	func main() {
//	    params := nn.DefaultParams()
//	    params.NumEpochs = 5
//
//	    net, err := nn.New([]nn.LayerDesc{
//	        {Type: "i", MapSize: [2]int{28, 28}},
//	        {Type: "c", OutputMaps: 6, KernelSize: 5},
//	        {Type: "s", Scale: [2]int{2, 2}},
//	        {Type: "f", Length: 10, Function: "SVM"},
//	    }, &params)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // data: [28, 28, N], labels: [10, N] with entries in {0, 1}
//	    if err := net.Train(data, labels); err != nil {
//	        log.Fatal(err)
//	    }
//	    pred, err := net.Classify(data) // [10, N]
//	}
//
// # Layers
//
// Input: holds the current batch; always first.
//
//	{Type: "i", MapSize: [2]int{height, width}}
//
// Convolution: every output map convolves all input maps, stride 1.
// Function is "sigmoid" (default) or "relu".
//
//	{Type: "c", OutputMaps: 6, KernelSize: 5, Padding: 0, Function: "relu"}
//
// Subsampling: non-overlapping "mean" (default) or "max" pooling.
//
//	{Type: "s", Scale: [2]int{2, 2}, Function: "max"}
//
// Fully connected: always last. The last layer's function picks the loss:
// "SVM" trains a squared hinge loss on labels mapped to {-1, +1}, "sigmoid"
// trains half the squared error.
//
//	{Type: "f", Length: 10, Function: "SVM", Dropout: 0.5}
//
// # Weights
//
// Weights returns every parameter as one flat vector in layer order;
// SetWeights loads such a vector back and turns shuffling off so further
// training is reproducible:
//
//	saved := net.Weights()
//	if err := other.SetWeights(saved); err != nil {
//	    log.Fatal(err)
//	}
package nn
