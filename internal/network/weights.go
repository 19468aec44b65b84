package network

import "fmt"

// NumWeights returns the length of the flat weight vector.
func (n *Net) NumWeights() int {
	total := 0
	for _, l := range n.layers[1:] {
		total += l.NumWeights()
	}
	return total
}

// Weights returns every layer's parameters concatenated in forward order.
func (n *Net) Weights() []float64 {
	weights := make([]float64, 0, n.NumWeights())
	for _, l := range n.layers[1:] {
		weights = l.AppendWeights(weights)
	}
	return weights
}

// SetWeights loads a vector produced by Weights. Each layer takes its share
// from the front; the vector must be consumed exactly. weights is not
// modified. On success shuffling is turned off so that further training is
// reproducible.
func (n *Net) SetWeights(weights []float64) error {
	if len(weights) != n.NumWeights() {
		return fmt.Errorf("%w: the net has %d weights, got %d", ErrSizeMismatch, n.NumWeights(), len(weights))
	}
	cursor := 0
	for i, l := range n.layers {
		if i == 0 {
			continue
		}
		size := l.NumWeights()
		if err := l.SetWeights(weights[cursor : cursor+size]); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		cursor += size
	}
	n.shuffle = false
	return nil
}
