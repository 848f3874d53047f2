package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - cpu.CPUBackend: pure Go host kernels
//   - device.Backend: simulated accelerator with its own memory and kernel clock
//   - profiler.Backend: decorator that records every call into a profiling session
type Backend interface {
	// Element-wise binary operations (NumPy broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Comparison operations (element-wise, return bool tensor)
	Greater(a, b *RawTensor) *RawTensor // a > b
	Lower(a, b *RawTensor) *RawTensor   // a < b
	Equal(a, b *RawTensor) *RawTensor   // a == b

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                            // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor  // sum along dimension
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // mean along dimension

	// Nonzero returns one int64 coordinate vector per dimension of x,
	// listing the positions of non-zero (or true) elements in row-major order.
	Nonzero(x *RawTensor) []*RawTensor

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Transfers. ToDevice copies a host tensor into this backend's device;
	// ToHost copies a tensor resident on this backend's device to the host.
	ToDevice(x *RawTensor) *RawTensor
	ToHost(x *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// Freer is implemented by backends that account for device memory and want
// buffers handed back explicitly.
type Freer interface {
	Free(x *RawTensor)
}

// Free hands xs back to b when b is a Freer. Other backends leave the
// buffers to the garbage collector.
func Free[B Backend](b B, xs ...*RawTensor) {
	f, ok := any(b).(Freer)
	if !ok {
		return
	}
	for _, x := range xs {
		f.Free(x)
	}
}
