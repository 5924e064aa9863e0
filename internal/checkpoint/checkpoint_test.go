package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/gorgonia"

	"iris-logreg/internal/model"
)

func sampleCheckpoint(t *testing.T, m *model.Linear) *Checkpoint {
	t.Helper()
	return &Checkpoint{
		Weights: FromParams(m.Params()),
		State: TrainingState{
			Epochs:       100,
			LearningRate: 0.1,
			Seed:         1<<60 + 3,
			Loss:         0.4321,
			ValAccuracy:  0.9,
		},
		Metadata: Metadata{
			RunID:     "run-1",
			Device:    "cpu",
			CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 123, time.UTC),
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatGob, FormatProto} {
		t.Run(format.String(), func(t *testing.T) {
			src := model.NewLinear(gorgonia.NewGraph(), 4, 3, 5)
			ck := sampleCheckpoint(t, src)
			path := filepath.Join(t.TempDir(), "model.pt")

			saver := NewSaver(format)
			if err := saver.Save(ck, path); err != nil {
				t.Fatalf("Save error: %v", err)
			}
			loaded, err := saver.Load(path)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if !reflect.DeepEqual(loaded.Weights, ck.Weights) {
				t.Fatalf("weights differ: %+v vs %+v", loaded.Weights, ck.Weights)
			}
			if loaded.State != ck.State {
				t.Fatalf("state differs: %+v vs %+v", loaded.State, ck.State)
			}
			if loaded.Metadata.RunID != "run-1" || !loaded.Metadata.CreatedAt.Equal(ck.Metadata.CreatedAt) {
				t.Fatalf("metadata differs: %+v", loaded.Metadata)
			}

			params, err := loaded.Params()
			if err != nil {
				t.Fatalf("Params error: %v", err)
			}
			fresh := model.NewLinear(gorgonia.NewGraph(), 4, 3, 99)
			if err := fresh.Load(params); err != nil {
				t.Fatalf("model Load error: %v", err)
			}
			x := model.FromMatrix(mat.NewDense(3, 4, []float64{
				1, 2, 3, 4,
				-1, 0, 1, 0.5,
				0.3, -0.7, 2, -2,
			}))
			want, err := src.Scores(x)
			if err != nil {
				t.Fatalf("src Scores: %v", err)
			}
			got, err := fresh.Scores(x)
			if err != nil {
				t.Fatalf("fresh Scores: %v", err)
			}
			if !got.Eq(want) {
				t.Fatalf("scores differ after reload: %v vs %v", got, want)
			}
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pt")
	if err := os.WriteFile(path, []byte("stale contents that are longer than nothing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	ck := sampleCheckpoint(t, model.NewLinear(gorgonia.NewGraph(), 4, 3, 1))
	saver := NewSaver(FormatGob)
	if err := saver.Save(ck, path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := saver.Load(path); err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
}

func TestSaveUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "model.pt")
	ck := sampleCheckpoint(t, model.NewLinear(gorgonia.NewGraph(), 4, 3, 1))
	err := NewSaver(FormatGob).Save(ck, path)
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestLoadWrongFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pt")
	ck := sampleCheckpoint(t, model.NewLinear(gorgonia.NewGraph(), 4, 3, 1))
	if err := NewSaver(FormatGob).Save(ck, path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := NewSaver(FormatProto).Load(path); err == nil {
		t.Fatal("expected error decoding gob data as proto")
	}
}

func TestParamsRejectsInconsistentWeights(t *testing.T) {
	ck := &Checkpoint{Weights: []WeightTensor{
		{Name: "weight", Shape: []int{3, 4}, Data: make([]float64, 11)},
		{Name: "bias", Shape: []int{3}, Data: make([]float64, 3)},
	}}
	if _, err := ck.Params(); err == nil {
		t.Fatal("expected size mismatch error")
	}
	ck = &Checkpoint{Weights: []WeightTensor{{Name: "bias", Shape: []int{3}, Data: make([]float64, 3)}}}
	if _, err := ck.Params(); err == nil {
		t.Fatal("expected missing weight error")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatGob, "gob": FormatGob, "proto": FormatProto} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("onnx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
