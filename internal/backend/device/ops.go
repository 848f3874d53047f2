package device

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Add performs element-wise addition on the device.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("add", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Add(x, y) })
}

// Sub performs element-wise subtraction on the device.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("sub", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Sub(x, y) })
}

// Mul performs element-wise multiplication on the device.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("mul", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Mul(x, y) })
}

// Div performs element-wise division on the device.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("div", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Div(x, y) })
}

// MatMul performs 2D matrix multiplication on the device.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("matmul", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.MatMul(x, y) })
}

// Reshape returns a view of x; no device memory is allocated.
func (b *Backend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	requireResident("reshape", x)
	return b.kernels.Reshape(x, newShape)
}

// Transpose permutes dimensions into a new device buffer.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	requireResident("transpose", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Transpose(x, axes...) })
}

// MulScalar multiplies every element by scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	requireResident("mulScalar", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.MulScalar(x, scalar) })
}

// AddScalar adds scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	requireResident("addScalar", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.AddScalar(x, scalar) })
}

// DivScalar divides every element by scalar.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	requireResident("divScalar", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.DivScalar(x, scalar) })
}

// Greater returns x > y element-wise as a device bool tensor.
func (b *Backend) Greater(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("greater", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Greater(x, y) })
}

// Lower returns x < y element-wise as a device bool tensor.
func (b *Backend) Lower(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("lower", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Lower(x, y) })
}

// Equal returns x == y element-wise as a device bool tensor.
func (b *Backend) Equal(x, y *tensor.RawTensor) *tensor.RawTensor {
	requireResident("equal", x, y)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Equal(x, y) })
}

// Sum reduces every element into a 0-D device tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	requireResident("sum", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Sum(x) })
}

// SumDim sums along dim.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	requireResident("sumdim", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.SumDim(x, dim, keepDim) })
}

// MeanDim averages along dim.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	requireResident("meandim", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.MeanDim(x, dim, keepDim) })
}

// Nonzero computes coordinate vectors on the device; nothing crosses to the host.
func (b *Backend) Nonzero(x *tensor.RawTensor) []*tensor.RawTensor {
	requireResident("nonzero", x)
	return b.launch(func() []*tensor.RawTensor { return b.kernels.Nonzero(x) })
}

// Cast converts dtype on the device. Same-dtype casts return x unchanged.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	requireResident("cast", x)
	return b.launch1(func() *tensor.RawTensor { return b.kernels.Cast(x, dtype) }, x)
}

// ToDevice uploads a host tensor into device memory.
func (b *Backend) ToDevice(x *tensor.RawTensor) *tensor.RawTensor {
	if !x.Device().IsHost() {
		panic(fmt.Sprintf("to_device: source must be a host tensor, got %s", x.Device()))
	}
	b.transfers.Add(1)
	return b.launch1(func() *tensor.RawTensor {
		b.throttle(x.ByteSize())
		return x.CopyTo(tensor.Accelerator)
	})
}

// ToHost downloads a device tensor into host memory. The host copy is not
// device memory, so only the kernel clock is charged.
func (b *Backend) ToHost(x *tensor.RawTensor) *tensor.RawTensor {
	requireResident("to_host", x)
	b.transfers.Add(1)
	var out *tensor.RawTensor
	b.launch(func() []*tensor.RawTensor {
		b.throttle(x.ByteSize())
		out = x.CopyTo(tensor.CPU)
		return nil
	})
	return out
}
