package metrics

import "time"

// Window accumulates step timings between two reports.
type Window struct {
	compute  time.Duration
	steps    int
	lastLoss float64
}

// Record adds one training step to the window.
func (w *Window) Record(computeTime time.Duration, loss float64) {
	w.compute += computeTime
	w.steps++
	w.lastLoss = loss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{LastLoss: w.lastLoss, Steps: w.steps}
	if w.steps > 0 {
		snap.AvgStepMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}

	w.compute = 0
	w.steps = 0
	return snap
}

// Snapshot represents loggable timing metrics.
type Snapshot struct {
	Steps     int
	AvgStepMS float64
	LastLoss  float64
}
