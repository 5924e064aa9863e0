//go:build !cuda

package device

// cudaDevices reports no devices when built without the cuda tag.
func cudaDevices() ([]string, error) {
	return nil, nil
}
