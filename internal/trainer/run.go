package trainer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorgonia.org/gorgonia"

	"iris-logreg/internal/checkpoint"
	"iris-logreg/internal/dataset"
	"iris-logreg/internal/device"
	"iris-logreg/internal/metrics"
	"iris-logreg/internal/model"
)

// RunConfig captures everything a run needs; it is not modified by Run.
type RunConfig struct {
	Epochs       int
	LearningRate float64
	TestSize     float64
	LogInterval  int
	Output       string
	Seed         int64
	Device       string
	Format       checkpoint.Format
	DataPath     string

	// Logger receives progress lines; nil uses the standard logger.
	Logger *log.Logger
}

// RunResult is what a completed run produced.
type RunResult struct {
	RunID  string
	Device device.Device
	Split  *dataset.Split
	Train  *Result
	Params model.Params
}

// Run executes the pipeline: load, standardize, split, resolve device,
// train, save.
func Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	raw, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	split, err := dataset.SplitTrainValidation(dataset.Standardize(raw), cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}

	dev, err := device.Resolve(cfg.Device)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger.Printf("device=%s", dev)
	logger.Printf("run_id=%s train=%d val=%d", runID, split.Train.Len(), split.Validation.Len())

	g := gorgonia.NewGraph()
	mdl := model.NewLinear(g, dataset.NumFeatures, dataset.NumClasses, cfg.Seed)

	res, err := Train(ctx, g, mdl, split, Options{
		Epochs:       cfg.Epochs,
		LearningRate: cfg.LearningRate,
		LogInterval:  cfg.LogInterval,
	}, func(r metrics.Report) {
		logger.Print(r.String())
	})
	if err != nil {
		return nil, err
	}

	params := mdl.Params()
	ck := &checkpoint.Checkpoint{
		Weights: checkpoint.FromParams(params),
		State: checkpoint.TrainingState{
			Epochs:       cfg.Epochs,
			LearningRate: cfg.LearningRate,
			Seed:         cfg.Seed,
			Loss:         res.Loss,
			ValAccuracy:  res.ValAccuracy,
		},
		Metadata: checkpoint.Metadata{
			RunID:  runID,
			Device: dev.String(),
		},
	}
	if err := checkpoint.NewSaver(cfg.Format).Save(ck, cfg.Output); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	logger.Printf("model saved to %s", cfg.Output)

	return &RunResult{
		RunID:  runID,
		Device: dev,
		Split:  split,
		Train:  res,
		Params: params,
	}, nil
}
