package checkpoint

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"time"

	"gorgonia.org/tensor"

	"iris-logreg/internal/model"
)

// ErrWrite indicates the checkpoint could not be written to its path.
var ErrWrite = errors.New("checkpoint write failed")

// Format selects the on-disk serialization.
type Format int

const (
	// FormatGob encodes the checkpoint with encoding/gob.
	FormatGob Format = iota
	// FormatProto encodes the checkpoint as a protobuf Struct.
	FormatProto
)

// String returns the flag spelling of f.
func (f Format) String() string {
	switch f {
	case FormatGob:
		return "gob"
	case FormatProto:
		return "proto"
	default:
		return "unknown"
	}
}

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "gob":
		return FormatGob, nil
	case "proto":
		return FormatProto, nil
	default:
		return 0, fmt.Errorf("unsupported checkpoint format %q", s)
	}
}

// Checkpoint is the persisted result of a run: learned parameters plus the
// settings and final metrics that produced them.
type Checkpoint struct {
	Weights  []WeightTensor
	State    TrainingState
	Metadata Metadata
}

// WeightTensor is one named parameter in row-major order.
type WeightTensor struct {
	Name  string
	Shape []int
	Data  []float64
}

// TrainingState records the run's hyperparameters and final metrics.
type TrainingState struct {
	Epochs       int
	LearningRate float64
	Seed         int64
	Loss         float64
	ValAccuracy  float64
}

// Metadata identifies the run.
type Metadata struct {
	RunID     string
	Device    string
	CreatedAt time.Time
}

const (
	weightName = "weight"
	biasName   = "bias"
)

// FromParams converts model parameters to named weight tensors.
func FromParams(p model.Params) []WeightTensor {
	return []WeightTensor{
		toWeightTensor(weightName, p.Weight),
		toWeightTensor(biasName, p.Bias),
	}
}

func toWeightTensor(name string, t *tensor.Dense) WeightTensor {
	data := t.Data().([]float64)
	return WeightTensor{
		Name:  name,
		Shape: append([]int(nil), t.Shape()...),
		Data:  append([]float64(nil), data...),
	}
}

// Params rebuilds model parameters from the checkpoint's weights.
func (c *Checkpoint) Params() (model.Params, error) {
	var p model.Params
	for _, w := range c.Weights {
		size := 1
		for _, d := range w.Shape {
			size *= d
		}
		if size != len(w.Data) {
			return model.Params{}, fmt.Errorf("checkpoint: %s has %d values for shape %v", w.Name, len(w.Data), w.Shape)
		}
		t := tensor.New(tensor.WithShape(w.Shape...), tensor.WithBacking(append([]float64(nil), w.Data...)))
		switch w.Name {
		case weightName:
			p.Weight = t
		case biasName:
			p.Bias = t
		}
	}
	if p.Weight == nil || p.Bias == nil {
		return model.Params{}, errors.New("checkpoint: missing weight or bias")
	}
	return p, nil
}

// Saver writes and reads checkpoints in one format.
type Saver struct {
	format Format
}

// NewSaver creates a saver for the given format.
func NewSaver(format Format) *Saver {
	return &Saver{format: format}
}

// Save writes c to path, replacing any existing file.
func (s *Saver) Save(c *Checkpoint, path string) error {
	if c.Metadata.CreatedAt.IsZero() {
		c.Metadata.CreatedAt = time.Now().UTC()
	}
	var (
		data []byte
		err  error
	)
	switch s.format {
	case FormatGob:
		data, err = encodeGob(c)
	case FormatProto:
		data, err = encodeProto(c)
	default:
		return fmt.Errorf("unsupported checkpoint format: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("encode %s checkpoint: %w", s.format, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Load reads a checkpoint written by Save with the same format.
func (s *Saver) Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	switch s.format {
	case FormatGob:
		return decodeGob(data)
	case FormatProto:
		return decodeProto(data)
	default:
		return nil, fmt.Errorf("unsupported checkpoint format: %s", s.format)
	}
}

func encodeGob(c *Checkpoint) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode gob checkpoint: %w", err)
	}
	return &c, nil
}
