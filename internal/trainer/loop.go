package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"iris-logreg/internal/dataset"
	"iris-logreg/internal/metrics"
	"iris-logreg/internal/model"
)

// Options controls the training loop.
type Options struct {
	Epochs       int
	LearningRate float64
	LogInterval  int
}

// Result summarizes a finished training loop.
type Result struct {
	Reports     []metrics.Report
	Loss        float64
	ValAccuracy float64
}

// Train runs exactly opts.Epochs full-batch SGD steps of mdl against the mean
// cross-entropy of split.Train. mdl must have been built on g. On every
// logging boundary and on the last epoch the validation accuracy is measured
// and passed to report, which may be nil.
func Train(ctx context.Context, g *gorgonia.ExprGraph, mdl *model.Linear, split *dataset.Split, opts Options, report func(metrics.Report)) (*Result, error) {
	if opts.Epochs <= 0 {
		return nil, errors.New("trainer: epochs must be > 0")
	}
	if math.IsNaN(opts.LearningRate) || math.IsInf(opts.LearningRate, 0) || opts.LearningRate <= 0 {
		return nil, errors.New("trainer: learning rate must be a finite value > 0")
	}
	if opts.LogInterval <= 0 {
		return nil, errors.New("trainer: log interval must be > 0")
	}
	if split.Train.Len() == 0 || split.Validation.Len() == 0 {
		return nil, errors.New("trainer: empty training or validation set")
	}
	if _, cols := split.Train.Features.Dims(); cols != mdl.In() {
		return nil, fmt.Errorf("trainer: dataset has %d features, model expects %d", cols, mdl.In())
	}

	trainX := model.FromMatrix(split.Train.Features)
	trainY := model.OneHot(split.Train.Labels, mdl.Out())
	valX := model.FromMatrix(split.Validation.Features)

	x := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(trainX.Shape()...), gorgonia.WithName("x"), gorgonia.WithValue(trainX))
	y := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(trainY.Shape()...), gorgonia.WithName("y"), gorgonia.WithValue(trainY))

	logits, err := mdl.Fwd(x)
	if err != nil {
		return nil, fmt.Errorf("trainer: forward: %w", err)
	}
	cost, err := crossEntropy(logits, y)
	if err != nil {
		return nil, fmt.Errorf("trainer: loss: %w", err)
	}
	var costVal gorgonia.Value
	gorgonia.Read(cost, &costVal)

	if _, err := gorgonia.Grad(cost, mdl.Learnables()...); err != nil {
		return nil, fmt.Errorf("trainer: grad: %w", err)
	}

	vm := gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(mdl.Learnables()...))
	defer vm.Close()
	solver := gorgonia.NewVanillaSolver(gorgonia.WithLearnRate(opts.LearningRate))

	res := &Result{Reports: make([]metrics.Report, 0, metrics.ReportCount(opts.Epochs, opts.LogInterval))}
	var window metrics.Window
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		if err := vm.RunAll(); err != nil {
			return nil, fmt.Errorf("trainer: epoch %d: %w", epoch, err)
		}
		if err := solver.Step(gorgonia.NodesToValueGrads(mdl.Learnables())); err != nil {
			return nil, fmt.Errorf("trainer: epoch %d: step: %w", epoch, err)
		}
		vm.Reset()

		loss, ok := costVal.Data().(float64)
		if !ok {
			return nil, fmt.Errorf("trainer: epoch %d: unexpected loss value %T", epoch, costVal.Data())
		}
		window.Record(time.Since(start), loss)
		res.Loss = loss

		if !metrics.ShouldReport(epoch, opts.Epochs, opts.LogInterval) {
			continue
		}
		acc, err := evaluate(mdl, valX, split.Validation.Labels)
		if err != nil {
			return nil, fmt.Errorf("trainer: epoch %d: evaluate: %w", epoch, err)
		}
		snap := window.Snapshot()
		r := metrics.Report{
			Epoch:       epoch,
			Epochs:      opts.Epochs,
			Loss:        snap.LastLoss,
			ValAccuracy: acc,
			AvgStepMS:   snap.AvgStepMS,
		}
		res.Reports = append(res.Reports, r)
		res.ValAccuracy = acc
		if report != nil {
			report(r)
		}
	}
	return res, nil
}

// crossEntropy is the mean over rows of -Σ y·log(softmax(logits)), where y
// holds one-hot targets.
func crossEntropy(logits, y *gorgonia.Node) (*gorgonia.Node, error) {
	probs, err := gorgonia.SoftMax(logits, 1)
	if err != nil {
		return nil, err
	}
	logProbs, err := gorgonia.Log(probs)
	if err != nil {
		return nil, err
	}
	picked, err := gorgonia.HadamardProd(logProbs, y)
	if err != nil {
		return nil, err
	}
	perRow, err := gorgonia.Sum(picked, 1)
	if err != nil {
		return nil, err
	}
	mean, err := gorgonia.Mean(perRow)
	if err != nil {
		return nil, err
	}
	return gorgonia.Neg(mean)
}

func evaluate(c model.Classifier, x *tensor.Dense, labels []int) (float64, error) {
	pred, err := model.Predict(c, x)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(pred, labels)
}
