// Package dataset builds training sets in the layout the network consumes:
// samples as a [height, width, samples] tensor and labels as a one-hot
// [classes, samples] matrix.
package dataset

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Set is a labelled collection of single-map samples.
type Set struct {
	Data    *tensor.Tensor // [height, width, samples]
	Labels  *mat.Dense     // [classes, samples], one-hot
	Classes []int          // class of every sample
}

// Len returns the number of samples.
func (s *Set) Len() int {
	return len(s.Classes)
}

// Head returns a set with the first n samples.
func (s *Set) Head(n int) (*Set, error) {
	if n <= 0 || n > s.Len() {
		return nil, fmt.Errorf("%w: cannot take %d of %d samples", tensor.ErrShapeMismatch, n, s.Len())
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	data, err := s.Data.SelectSamples(idx)
	if err != nil {
		return nil, err
	}
	return &Set{
		Data:    data,
		Labels:  tensor.SelectColumns(s.Labels, idx),
		Classes: append([]int(nil), s.Classes[:n]...),
	}, nil
}

// FromIDX converts IDX images and labels into a Set. Pixels are scaled to
// [0, 1]. Every label must be below classes. maxSamples > 0 keeps only the
// first maxSamples.
func FromIDX(images *Images, labels []byte, classes, maxSamples int) (*Set, error) {
	if images.Count != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", images.Count, len(labels))
	}
	if classes <= 0 {
		return nil, fmt.Errorf("class count must be positive, got %d", classes)
	}
	n := images.Count
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	if n == 0 {
		return nil, fmt.Errorf("no samples")
	}

	set := newSet(images.Rows, images.Cols, classes, n)
	data := set.Data.Data()
	for s := 0; s < n; s++ {
		class := int(labels[s])
		if class >= classes {
			return nil, fmt.Errorf("label %d of sample %d out of range [0, %d)", class, s, classes)
		}
		set.setClass(s, class)
		for p, v := range images.Image(s) {
			data[p*n+s] = float64(v) / 255
		}
	}
	return set, nil
}

// Synthetic generates perClass samples of every class. Class c lights a
// horizontal band of rows whose position depends on c, so the classes are
// separable by a small network. Samples are interleaved by class.
func Synthetic(classes, height, width, perClass int) *Set {
	n := classes * perClass
	set := newSet(height, width, classes, n)
	band := max(1, height/classes)
	for s := 0; s < n; s++ {
		class := s % classes
		set.setClass(s, class)
		top := class * (height - band) / max(1, classes-1)
		shift := (s / classes) % max(1, width/4)
		for y := top; y < top+band; y++ {
			for x := shift; x < width; x++ {
				set.Data.Set(0.8, y, x, s)
			}
		}
	}
	return set
}

func newSet(height, width, classes, n int) *Set {
	return &Set{
		Data:    tensor.New(height, width, n),
		Labels:  mat.NewDense(classes, n, nil),
		Classes: make([]int, n),
	}
}

func (s *Set) setClass(sample, class int) {
	s.Classes[sample] = class
	s.Labels.Set(class, sample, 1)
}

// Predicted returns the arg-max class of every column of pred
// [classes, samples].
func Predicted(pred mat.Matrix) []int {
	rows, cols := pred.Dims()
	column := make([]float64, rows)
	out := make([]int, cols)
	for j := range out {
		mat.Col(column, j, pred)
		out[j] = floats.MaxIdx(column)
	}
	return out
}

// Accuracy returns the fraction of samples whose predicted class matches.
func (s *Set) Accuracy(pred mat.Matrix) float64 {
	predicted := Predicted(pred)
	if len(predicted) != s.Len() || s.Len() == 0 {
		return 0
	}
	correct := 0
	for i, c := range predicted {
		if c == s.Classes[i] {
			correct++
		}
	}
	return float64(correct) / float64(s.Len())
}
