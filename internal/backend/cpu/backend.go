// Package cpu implements the host backend: pure Go kernels operating on
// tensors that live in host memory.
package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

// CPUBackend implements tensor operations on the host.
//
// The device field labels every result the backend allocates. The simulated
// accelerator reuses these kernels through NewOn with its own device label.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return NewOn(tensor.CPU)
}

// NewOn creates a CPU kernel set whose results are stamped with device.
func NewOn(device tensor.Device) *CPUBackend {
	return &CPUBackend{
		device: device,
		par:    parallel.DefaultConfig(),
	}
}

// SetParallel replaces the worker configuration used by row-parallel kernels.
func (cpu *CPUBackend) SetParallel(cfg parallel.Config) {
	cpu.par = cfg
}

// Parallel returns the worker configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// newResult allocates a result tensor on the backend's device.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, opAdd)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, opSub)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, opMul)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, opDiv)
}

// Reshape returns a view with the same data and a different shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	return t.WithShape(newShape)
}

// Transpose transposes the tensor by permuting its dimensions.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := cpu.newResult("transpose", newShape, t.DType())

	// Walk the output in row-major order and gather from the permuted input offset.
	inStrides := t.Strides()
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = inStrides[ax]
	}
	outStrides := newShape.ComputeStrides()
	elem := t.DType().Size()
	src, dst := t.Data(), result.Data()
	for o := 0; o < result.NumElements(); o++ {
		in := computeFlatIndex(o, outStrides, permStrides)
		copy(dst[o*elem:(o+1)*elem], src[in*elem:(in+1)*elem])
	}

	return result
}

// ToDevice copies a host tensor onto this backend's device.
// For the host backend this is a plain copy.
func (cpu *CPUBackend) ToDevice(x *tensor.RawTensor) *tensor.RawTensor {
	if !x.Device().IsHost() {
		panic(fmt.Sprintf("to_device: source must be a host tensor, got %s", x.Device()))
	}
	return x.CopyTo(cpu.device)
}

// ToHost copies a tensor that lives on this backend's device into host memory.
func (cpu *CPUBackend) ToHost(x *tensor.RawTensor) *tensor.RawTensor {
	if x.Device() != cpu.device {
		panic(fmt.Sprintf("to_host: tensor is on %s, backend owns %s", x.Device(), cpu.device))
	}
	return x.CopyTo(tensor.CPU)
}
