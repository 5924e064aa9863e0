package dataset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnavailable indicates the dataset could not be read or parsed.
var ErrUnavailable = errors.New("dataset unavailable")

//go:embed iris.csv
var irisCSV []byte

// Open returns a reader over the dataset at path. An empty path selects
// the bundled iris data.
func Open(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(bytes.NewReader(irisCSV)), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return f, nil
}

// Load reads and parses the dataset at path (see Open).
func Load(path string) (*Dataset, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := Parse(rc)
	if err != nil {
		if path == "" {
			path = "bundled iris.csv"
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}
