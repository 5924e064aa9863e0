package metrics

import "fmt"

// Report is one progress line of a training run.
type Report struct {
	Epoch       int
	Epochs      int
	Loss        float64
	ValAccuracy float64
	AvgStepMS   float64
}

// String formats the report as a console progress line.
func (r Report) String() string {
	width := len(fmt.Sprint(r.Epochs))
	return fmt.Sprintf("epoch=[%*d/%d] loss=%.4f val_acc=%.2f%% step_ms=%.3f",
		width, r.Epoch, r.Epochs, r.Loss, r.ValAccuracy*100, r.AvgStepMS)
}

// ShouldReport reports whether epoch (1-based) lands on a logging boundary
// or is the last epoch.
func ShouldReport(epoch, epochs, interval int) bool {
	if epoch == epochs {
		return true
	}
	return interval > 0 && epoch%interval == 0
}

// ReportCount is the number of epochs in 1..epochs for which ShouldReport holds.
func ReportCount(epochs, interval int) int {
	if epochs <= 0 {
		return 0
	}
	if interval <= 0 {
		return 1
	}
	n := epochs / interval
	if epochs%interval != 0 {
		n++
	}
	return n
}

// Accuracy is the fraction of positions where pred equals labels.
func Accuracy(pred, labels []int) (float64, error) {
	if len(pred) != len(labels) {
		return 0, fmt.Errorf("metrics: %d predictions for %d labels", len(pred), len(labels))
	}
	if len(labels) == 0 {
		return 0, fmt.Errorf("metrics: no labels")
	}
	correct := 0
	for i, p := range pred {
		if p == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}
