//go:build !opencl

package water

import "errors"

func newOpenCLBackend(int) (backend, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}
