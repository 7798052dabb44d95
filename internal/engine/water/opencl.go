//go:build opencl

package water

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

const heightfieldKernelSource = `__kernel void heightfield_step(
    const int n,
    const float width,
    const float height,
    const float viscosity,
    const float dist_x,
    const float dist_y,
    const float radius,
    const float strength,
    __global const float* height_in,
    __global const float* prev_in,
    __global float* height_out)
{
    int idx = get_global_id(0);
    if (idx >= n * n) {
        return;
    }
    int i = idx % n;
    int j = idx / n;
    int east = min(i + 1, n - 1);
    int west = max(i - 1, 0);
    int north = min(j + 1, n - 1);
    int south = max(j - 1, 0);
    float sum = height_in[north * n + i] + height_in[south * n + i]
              + height_in[j * n + east] + height_in[j * n + west];
    float h = (sum * 0.5f - prev_in[idx]) * viscosity;
    float x = (((float)i + 0.5f) / (float)n - 0.5f) * width;
    float y = (((float)j + 0.5f) / (float)n - 0.5f) * height;
    float phase = hypot(x - dist_x, y - dist_y) * M_PI_F / radius;
    if (phase < M_PI_F) {
        h -= (cos(max(phase, 0.0f)) + 1.0f) * strength;
    }
    height_out[idx] = h;
}`

// openclBackend runs the step kernel on the first GPU, or failing that the
// first CPU device, that the OpenCL runtime reports.
type openclBackend struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	kernel     *cl.Kernel
	heightBuf  *cl.MemObject
	prevBuf    *cl.MemObject
	outBuf     *cl.MemObject
	size       int
	deviceName string
}

func pickDevice(platforms []*cl.Platform) *cl.Device {
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, err := p.GetDevices(kind)
			if err != nil && err != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0]
			}
		}
	}
	return nil
}

func newOpenCLBackend(size int) (backend, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	device := pickDevice(platforms)
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	b := &openclBackend{size: size, deviceName: device.Name()}
	if err := b.init(device); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *openclBackend) init(device *cl.Device) error {
	var err error
	if b.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return fmt.Errorf("creating OpenCL context: %w", err)
	}
	if b.queue, err = b.context.CreateCommandQueue(device, 0); err != nil {
		return fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if b.program, err = b.context.CreateProgramWithSource([]string{heightfieldKernelSource}); err != nil {
		return fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := b.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			return fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fmt.Errorf("building OpenCL program: %w", err)
	}
	if b.kernel, err = b.program.CreateKernel("heightfield_step"); err != nil {
		return fmt.Errorf("creating OpenCL kernel: %w", err)
	}

	byteSize := b.size * b.size * int(unsafe.Sizeof(float32(0)))
	if b.heightBuf, err = b.context.CreateEmptyBuffer(cl.MemReadOnly, byteSize); err != nil {
		return fmt.Errorf("allocating height buffer: %w", err)
	}
	if b.prevBuf, err = b.context.CreateEmptyBuffer(cl.MemReadOnly, byteSize); err != nil {
		return fmt.Errorf("allocating previous buffer: %w", err)
	}
	if b.outBuf, err = b.context.CreateEmptyBuffer(cl.MemWriteOnly, byteSize); err != nil {
		return fmt.Errorf("allocating output buffer: %w", err)
	}
	return nil
}

func (b *openclBackend) Name() string {
	return "opencl:" + b.deviceName
}

func (b *openclBackend) Step(cur, next *Grid, in stepInput) error {
	if cur.Size != b.size || next.Size != b.size {
		return fmt.Errorf("grid size %d does not match device buffers (%d)", cur.Size, b.size)
	}
	d := in.disturbance
	if err := b.kernel.SetArgs(
		int32(b.size),
		float32(in.width),
		float32(in.height),
		in.viscosity,
		float32(d.X),
		float32(d.Y),
		float32(d.Radius),
		float32(d.Strength),
		b.heightBuf,
		b.prevBuf,
		b.outBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := b.queue.EnqueueWriteBufferFloat32(b.heightBuf, false, 0, cur.Height, nil); err != nil {
		return fmt.Errorf("writing height buffer: %w", err)
	}
	if _, err := b.queue.EnqueueWriteBufferFloat32(b.prevBuf, false, 0, cur.Previous, nil); err != nil {
		return fmt.Errorf("writing previous buffer: %w", err)
	}
	if _, err := b.queue.EnqueueNDRangeKernel(b.kernel, nil, []int{b.size * b.size}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	if _, err := b.queue.EnqueueReadBufferFloat32(b.outBuf, true, 0, next.Height, nil); err != nil {
		return fmt.Errorf("reading height buffer: %w", err)
	}
	copy(next.Previous, cur.Height)
	return nil
}

func (b *openclBackend) Close() {
	if b.outBuf != nil {
		b.outBuf.Release()
		b.outBuf = nil
	}
	if b.prevBuf != nil {
		b.prevBuf.Release()
		b.prevBuf = nil
	}
	if b.heightBuf != nil {
		b.heightBuf.Release()
		b.heightBuf = nil
	}
	if b.kernel != nil {
		b.kernel.Release()
		b.kernel = nil
	}
	if b.program != nil {
		b.program.Release()
		b.program = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.context != nil {
		b.context.Release()
		b.context = nil
	}
}
