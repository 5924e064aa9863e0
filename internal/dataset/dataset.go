package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// NumFeatures is the width of every sample row.
	NumFeatures = 4
	// NumClasses is the number of species labels.
	NumClasses = 3
)

// ClassNames maps label ids to species names.
var ClassNames = [NumClasses]string{"setosa", "versicolor", "virginica"}

// Dataset pairs a sample matrix with its row-aligned labels.
type Dataset struct {
	Features *mat.Dense
	Labels   []int
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Labels)
}

// Row returns a copy of the i-th feature vector.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.Features)
}

// Subset returns the rows at idx, in that order.
func (d *Dataset) Subset(idx []int) *Dataset {
	_, cols := d.Features.Dims()
	features := mat.NewDense(len(idx), cols, nil)
	labels := make([]int, len(idx))
	for i, src := range idx {
		features.SetRow(i, d.Features.RawRowView(src))
		labels[i] = d.Labels[src]
	}
	return &Dataset{Features: features, Labels: labels}
}

// Parse reads a CSV with a header row, four numeric feature columns and a
// label column holding either a class id or a species name.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = NumFeatures + 1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: header: %v", ErrUnavailable, err)
	}

	var data []float64
	var labels []int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		line, _ := reader.FieldPos(0)
		for j := 0; j < NumFeatures; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: column %d: %v", ErrUnavailable, line, j+1, err)
			}
			data = append(data, v)
		}
		label, err := parseLabel(record[NumFeatures])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrUnavailable, line, err)
		}
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrUnavailable)
	}

	return &Dataset{
		Features: mat.NewDense(len(labels), NumFeatures, data),
		Labels:   labels,
	}, nil
}

func parseLabel(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.Atoi(raw); err == nil {
		if id < 0 || id >= NumClasses {
			return 0, fmt.Errorf("label %d out of range [0,%d)", id, NumClasses)
		}
		return id, nil
	}
	name := strings.TrimPrefix(strings.ToLower(raw), "iris-")
	for id, class := range ClassNames {
		if name == class {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown label %q", raw)
}

// Standardize rescales every feature column to zero mean and unit
// (population) variance over all rows of d. Constant columns are only centered.
func Standardize(d *Dataset) *Dataset {
	rows, cols := d.Features.Dims()
	out := mat.NewDense(rows, cols, nil)
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, d.Features)
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		for i, v := range column {
			out.Set(i, j, (v-mean)/std)
		}
	}
	return &Dataset{Features: out, Labels: append([]int(nil), d.Labels...)}
}
