// Package main trains a convolutional network described by a YAML run file.
//
// Usage:
//
//	convnet -config lenet.yaml -images train-images-idx3-ubyte -labels train-labels-idx1-ubyte
//	convnet -samples 200 -epochs 5   # synthetic band images, built-in layers
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/dataset"
	"github.com/born-ml/convnet/internal/network"
	"gonum.org/v1/gonum/floats"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "convnet: %v\n", err)
		os.Exit(1)
	}
}

// defaultLayers is used when no run file is given.
func defaultLayers(size, classes int) []config.LayerDesc {
	return []config.LayerDesc{
		{Type: "i", MapSize: [2]int{size, size}},
		{Type: "c", OutputMaps: 4, KernelSize: 3, Function: config.FuncReLU},
		{Type: "s", Scale: [2]int{2, 2}, Function: config.FuncMax},
		{Type: "f", Length: classes, Function: config.FuncSVM},
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convnet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML run file with params and layers (default: built-in layers)")
	imagesPath := fs.String("images", "", "IDX image file (default: synthetic data)")
	labelsPath := fs.String("labels", "", "IDX label file")
	samples := fs.Int("samples", 0, "Max samples to use; synthetic default 100 (0 = all)")
	classes := fs.Int("classes", 10, "Number of classes when no run file is given")
	size := fs.Int("size", 12, "Synthetic image size when no run file is given")
	epochs := fs.Int("epochs", 0, "Override num_epochs")
	batch := fs.Int("batch", 0, "Override batch_size")
	alpha := fs.Float64("alpha", 0, "Override alpha")
	seed := fs.Int64("seed", 0, "Random seed (0 = clock)")
	verbose := fs.Bool("v", false, "Log every batch")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "convnet %s\n", version)
		return nil
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	params := config.DefaultParams()
	layers := defaultLayers(*size, *classes)
	if *configPath != "" {
		file, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		params, layers = file.Params, file.Layers
	}
	params.ApplyOverrides(config.Overrides{
		BatchSize: *batch,
		NumEpochs: *epochs,
		Alpha:     *alpha,
		Seed:      *seed,
	})
	if err := params.Validate(); err != nil {
		return err
	}

	net, err := network.New(layers, &params, network.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Network: %d layers, %d weights\n", net.Len(), net.NumWeights())

	set, err := loadSet(*imagesPath, *labelsPath, net.MapSize(), net.Classes(), *samples)
	if err != nil {
		return err
	}
	logger.Info("data loaded", "samples", set.Len(), "classes", net.Classes())

	start := time.Now()
	if err := net.Train(set.Data, set.Labels); err != nil {
		return err
	}
	loss := net.TrainLoss()
	batches := len(loss) / params.NumEpochs
	for e := 0; e < params.NumEpochs; e++ {
		mean := floats.Sum(loss[e*batches:(e+1)*batches]) / float64(batches)
		fmt.Fprintf(stdout, "Epoch %d/%d: loss %.4f\n", e+1, params.NumEpochs, mean)
	}

	pred, err := net.Classify(set.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Training accuracy: %.2f%% (%s)\n", 100*set.Accuracy(pred), time.Since(start).Round(time.Millisecond))
	return nil
}

// loadSet reads IDX files, or generates synthetic data when no image file
// is given.
func loadSet(imagesPath, labelsPath string, size [2]int, classes, samples int) (*dataset.Set, error) {
	if imagesPath == "" {
		if samples <= 0 {
			samples = 100
		}
		perClass := max(1, samples/classes)
		return dataset.Synthetic(classes, size[0], size[1], perClass), nil
	}
	if labelsPath == "" {
		return nil, errors.New("-labels is required with -images")
	}
	return dataset.LoadIDX(imagesPath, labelsPath, classes, samples)
}
