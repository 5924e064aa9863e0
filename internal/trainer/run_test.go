package trainer

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"gorgonia.org/gorgonia"

	"iris-logreg/internal/checkpoint"
	"iris-logreg/internal/dataset"
	"iris-logreg/internal/model"
)

func runConfig(t *testing.T, buf *bytes.Buffer) RunConfig {
	t.Helper()
	return RunConfig{
		Epochs:       100,
		LearningRate: 0.1,
		TestSize:     0.2,
		LogInterval:  20,
		Output:       filepath.Join(t.TempDir(), "model.pt"),
		Seed:         42,
		Device:       "cpu",
		Format:       checkpoint.FormatGob,
		Logger:       log.New(buf, "", 0),
	}
}

func TestRunEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	cfg := runConfig(t, &buf)
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "device=cpu") {
		t.Fatalf("first line should name the device:\n%s", out)
	}
	if got := strings.Count(out, "epoch=["); got != 5 {
		t.Fatalf("expected 5 progress lines, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "epoch=[100/100]") {
		t.Fatalf("missing final progress line:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "model saved to "+cfg.Output) {
		t.Fatalf("missing save confirmation:\n%s", out)
	}
	if res.Split.Validation.Len() != 30 || res.Split.Train.Len() != 120 {
		t.Fatalf("unexpected split %d/%d", res.Split.Train.Len(), res.Split.Validation.Len())
	}
	if res.Train.ValAccuracy <= 0.9 {
		t.Fatalf("validation accuracy %.3f after 100 epochs, want > 0.9", res.Train.ValAccuracy)
	}

	ck, err := checkpoint.NewSaver(checkpoint.FormatGob).Load(cfg.Output)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if ck.Metadata.RunID != res.RunID || ck.State.Epochs != 100 {
		t.Fatalf("checkpoint metadata mismatch: %+v", ck)
	}
	params, err := ck.Params()
	if err != nil {
		t.Fatalf("checkpoint params: %v", err)
	}
	reloaded := model.NewLinear(gorgonia.NewGraph(), dataset.NumFeatures, dataset.NumClasses, 7)
	if err := reloaded.Load(params); err != nil {
		t.Fatalf("load params: %v", err)
	}
	trained := model.NewLinear(gorgonia.NewGraph(), dataset.NumFeatures, dataset.NumClasses, 8)
	if err := trained.Load(res.Params); err != nil {
		t.Fatalf("load result params: %v", err)
	}
	x := model.FromMatrix(res.Split.Validation.Features)
	want, err := trained.Scores(x)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	got, err := reloaded.Scores(x)
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if !got.Eq(want) {
		t.Fatal("reloaded model scores differ from trained model")
	}
}

func TestRunProtoFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := runConfig(t, &buf)
	cfg.Epochs = 10
	cfg.LogInterval = 5
	cfg.Format = checkpoint.FormatProto
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	ck, err := checkpoint.NewSaver(checkpoint.FormatProto).Load(cfg.Output)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if _, err := ck.Params(); err != nil {
		t.Fatalf("checkpoint params: %v", err)
	}
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RunConfig)
		want   error
	}{
		{"missing data", func(c *RunConfig) { c.DataPath = filepath.Join(t.TempDir(), "absent.csv") }, dataset.ErrUnavailable},
		{"empty validation", func(c *RunConfig) { c.TestSize = 1 }, dataset.ErrInvalidSplit},
		{"unwritable output", func(c *RunConfig) { c.Output = filepath.Join(t.TempDir(), "no", "such", "dir", "m.pt") }, checkpoint.ErrWrite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := runConfig(t, &buf)
			cfg.Epochs = 2
			cfg.LogInterval = 1
			tc.mutate(&cfg)
			_, err := Run(context.Background(), cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
