//go:build cuda

package device

import "gorgonia.org/cu"

func cudaDevices() ([]string, error) {
	n, err := cu.NumDevices()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := cu.Device(i).Name()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
