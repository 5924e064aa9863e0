package checkpoint

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// The proto format stores a checkpoint as a google.protobuf.Struct so it can
// be read by any protobuf runtime without generated code.

func encodeProto(c *Checkpoint) ([]byte, error) {
	weights := make([]*structpb.Value, 0, len(c.Weights))
	for _, w := range c.Weights {
		weights = append(weights, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"name":  structpb.NewStringValue(w.Name),
				"shape": numberList(intsToFloats(w.Shape)),
				"data":  numberList(w.Data),
			},
		}))
	}

	msg := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"weights":       structpb.NewListValue(&structpb.ListValue{Values: weights}),
			"epochs":        structpb.NewNumberValue(float64(c.State.Epochs)),
			"learning_rate": structpb.NewNumberValue(c.State.LearningRate),
			"seed":          structpb.NewStringValue(strconv.FormatInt(c.State.Seed, 10)),
			"loss":          structpb.NewNumberValue(c.State.Loss),
			"val_accuracy":  structpb.NewNumberValue(c.State.ValAccuracy),
			"run_id":        structpb.NewStringValue(c.Metadata.RunID),
			"device":        structpb.NewStringValue(c.Metadata.Device),
			"created_at":    structpb.NewStringValue(c.Metadata.CreatedAt.Format(time.RFC3339Nano)),
		},
	}
	return proto.Marshal(msg)
}

func decodeProto(data []byte) (*Checkpoint, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode proto checkpoint: %w", err)
	}
	fields := msg.GetFields()
	if fields["weights"] == nil {
		return nil, errors.New("decode proto checkpoint: no weights")
	}

	c := &Checkpoint{}
	for _, v := range fields["weights"].GetListValue().GetValues() {
		wf := v.GetStructValue().GetFields()
		c.Weights = append(c.Weights, WeightTensor{
			Name:  wf["name"].GetStringValue(),
			Shape: floatsToInts(numbers(wf["shape"])),
			Data:  numbers(wf["data"]),
		})
	}

	c.State.Epochs = int(fields["epochs"].GetNumberValue())
	c.State.LearningRate = fields["learning_rate"].GetNumberValue()
	c.State.Loss = fields["loss"].GetNumberValue()
	c.State.ValAccuracy = fields["val_accuracy"].GetNumberValue()
	if s := fields["seed"].GetStringValue(); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode proto checkpoint: seed: %w", err)
		}
		c.State.Seed = seed
	}
	c.Metadata.RunID = fields["run_id"].GetStringValue()
	c.Metadata.Device = fields["device"].GetStringValue()
	if s := fields["created_at"].GetStringValue(); s != "" {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("decode proto checkpoint: created_at: %w", err)
		}
		c.Metadata.CreatedAt = ts
	}
	return c, nil
}

func numberList(vals []float64) *structpb.Value {
	list := make([]*structpb.Value, len(vals))
	for i, v := range vals {
		list[i] = structpb.NewNumberValue(v)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func numbers(v *structpb.Value) []float64 {
	vals := v.GetListValue().GetValues()
	out := make([]float64, len(vals))
	for i, n := range vals {
		out[i] = n.GetNumberValue()
	}
	return out
}

func intsToFloats(in []int) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func floatsToInts(in []float64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
