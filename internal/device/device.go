// Package device resolves the compute placement hint once per run.
//
// Placement itself belongs to the numeric backend: gorgonia built with the
// cuda tag schedules supported ops on the GPU. This package only decides
// which device the run should report and refuses an explicit gpu request
// that cannot be honoured.
package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// ErrUnavailable is returned when the requested device does not exist.
var ErrUnavailable = errors.New("device unavailable")

// Kind identifies a class of compute device.
type Kind string

// Device kinds accepted by Resolve.
const (
	CPU Kind = "cpu"
	GPU Kind = "gpu"
)

// Device describes the resolved compute device.
type Device struct {
	Kind     Kind
	Name     string
	Cores    int
	Features []string
}

// probeGPU lists CUDA device names; swapped out by tests.
var probeGPU = cudaDevices

// Resolve maps a hint of "auto", "cpu" or "gpu" to a concrete device.
// "auto" prefers the first CUDA device and falls back to the host CPU.
func Resolve(hint string) (Device, error) {
	switch hint {
	case "", "auto":
		if gpus, err := probeGPU(); err == nil && len(gpus) > 0 {
			return Device{Kind: GPU, Name: gpus[0]}, nil
		}
		return hostCPU(), nil
	case "cpu":
		return hostCPU(), nil
	case "gpu":
		gpus, err := probeGPU()
		if err != nil {
			return Device{}, fmt.Errorf("%w: gpu: %v", ErrUnavailable, err)
		}
		if len(gpus) == 0 {
			return Device{}, fmt.Errorf("%w: gpu: no CUDA devices found", ErrUnavailable)
		}
		return Device{Kind: GPU, Name: gpus[0]}, nil
	default:
		return Device{}, fmt.Errorf("%w: unknown device hint %q", ErrUnavailable, hint)
	}
}

func hostCPU() Device {
	d := Device{
		Kind:  CPU,
		Name:  strings.TrimSpace(cpuid.CPU.BrandName),
		Cores: cpuid.CPU.PhysicalCores,
	}
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.AVX512F, "avx512f"},
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma3"},
		{cpuid.SSE4, "sse4"},
		{cpuid.ASIMD, "asimd"},
	} {
		if cpuid.CPU.Supports(f.id) {
			d.Features = append(d.Features, f.name)
		}
	}
	return d
}

// String renders the device line printed at startup.
func (d Device) String() string {
	var b strings.Builder
	b.WriteString(string(d.Kind))
	if d.Name != "" {
		fmt.Fprintf(&b, " name=%q", d.Name)
	}
	if d.Cores > 0 {
		fmt.Fprintf(&b, " cores=%d", d.Cores)
	}
	if len(d.Features) > 0 {
		fmt.Fprintf(&b, " features=%s", strings.Join(d.Features, ","))
	}
	return b.String()
}
