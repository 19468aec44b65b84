package network

import (
	"fmt"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// classCoef is the balancing coefficient every class gets.
const classCoef = 0.5

// Train runs params.NumEpochs epochs of minibatch training on data
// [height, width, samples] with labels [classes, samples].
//
// For an SVM output layer, {0, 1} labels are mapped to {-1, +1} on a private
// copy; labels itself is left untouched. Each batch runs
//
//	UpdateWeights(false) -> Forward(Train) -> Backward -> UpdateWeights(true)
//
// and its loss is stored at TrainLoss()[epoch*batches+batch].
func (n *Net) Train(data *tensor.Tensor, labels mat.Matrix) error {
	loss, err := lossFor(n.last().Function())
	if err != nil {
		return err
	}
	samples, err := n.checkData(data)
	if err != nil {
		return err
	}
	if labels == nil {
		return fmt.Errorf("%w: no labels", ErrShapeMismatch)
	}
	classes, cols := labels.Dims()
	if classes != n.Classes() {
		return fmt.Errorf("%w: labels have %d classes, the last layer has %d",
			ErrShapeMismatch, classes, n.Classes())
	}
	if cols != samples {
		return fmt.Errorf("%w: %d samples, %d label columns", ErrShapeMismatch, samples, cols)
	}

	targets := mat.DenseCopyOf(labels)
	if loss == Hinge {
		remapHingeLabels(targets)
	}

	n.classCoefs = make([]float64, classes)
	for i := range n.classCoefs {
		n.classCoefs[i] = classCoef
	}

	batchSize := n.params.BatchSize
	epochs := n.params.NumEpochs
	batches := (samples + batchSize - 1) / batchSize
	n.trainLoss = make([]float64, epochs*batches)

	n.logger.Info("training started",
		"samples", samples,
		"epochs", epochs,
		"batches", batches,
		"loss", loss.String(),
		"shuffle", n.shuffle)

	for epoch := 0; epoch < epochs; epoch++ {
		order := n.epochOrder(samples)
		for b := 0; b < batches; b++ {
			idx := order[b*batchSize : min((b+1)*batchSize, samples)]
			value, err := n.trainBatch(data, targets, idx)
			if err != nil {
				return fmt.Errorf("epoch %d, batch %d: %w", epoch+1, b+1, err)
			}
			n.trainLoss[epoch*batches+b] = value
			n.logger.Debug("batch finished", "epoch", epoch+1, "batch", b+1, "size", len(idx), "loss", value)
		}
		n.logger.Info("epoch finished",
			"epoch", epoch+1,
			"mean_loss", floats.Sum(n.trainLoss[epoch*batches:(epoch+1)*batches])/float64(batches))
	}
	n.logger.Info("training finished")
	return nil
}

// epochOrder returns a random permutation of the sample indices when
// shuffling is on, the ascending order otherwise.
func (n *Net) epochOrder(samples int) []int {
	if n.shuffle {
		return n.rng.Perm(samples)
	}
	order := make([]int, samples)
	for i := range order {
		order[i] = i
	}
	return order
}

func (n *Net) trainBatch(data *tensor.Tensor, targets *mat.Dense, idx []int) (float64, error) {
	batch, err := data.SelectSamples(idx)
	if err != nil {
		return 0, err
	}
	labels := tensor.SelectColumns(targets, idx)

	n.UpdateWeights(false)
	if _, err := n.Forward(batch, nn.Train); err != nil {
		return 0, err
	}
	value, err := n.Backward(labels)
	if err != nil {
		return 0, err
	}
	n.UpdateWeights(true)
	return value, nil
}
