package profiler

import (
	"time"

	"github.com/born-ml/bornprof/internal/tensor"
)

// KernelClock is implemented by backends that keep their own device clock.
// The instrumented backend charges each op with the clock's advance.
type KernelClock interface {
	KernelTime() time.Duration
}

// Backend wraps a tensor.Backend and records one event per operation into
// the profiler's active session. Without an active session calls go
// straight to the inner backend.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Backend[B tensor.Backend] struct {
	inner B
	p     *Profiler
	clock KernelClock
}

// Instrument wraps backend so its ops are recorded by p.
//
// Example:
//
//	dev := profiler.Instrument(p, device.New())
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, dev)
func Instrument[B tensor.Backend](p *Profiler, backend B) *Backend[B] {
	clock, _ := any(backend).(KernelClock)
	return &Backend[B]{
		inner: backend,
		p:     p,
		clock: clock,
	}
}

// Inner returns the wrapped backend for direct access.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Profiler returns the profiler events are recorded into.
func (b *Backend[B]) Profiler() *Profiler {
	return b.p
}

// Name returns the backend name.
func (b *Backend[B]) Name() string {
	return "Profiled(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// KernelTime forwards the inner clock so instrumented backends can be stacked.
func (b *Backend[B]) KernelTime() time.Duration {
	if b.clock == nil {
		return 0
	}
	return b.clock.KernelTime()
}

// Free forwards to the inner backend when it manages device memory. Frees
// are not recorded as events.
func (b *Backend[B]) Free(x *tensor.RawTensor) {
	tensor.Free(b.inner, x)
}

// record runs fn as op name. Results sharing a buffer with an input are
// views and are not counted as allocations.
func (b *Backend[B]) record(name string, inputs []*tensor.RawTensor, fn func() []*tensor.RawTensor) []*tensor.RawTensor {
	s := b.p.Active()
	if s == nil {
		return fn()
	}

	opts := b.p.opts
	var shapes [][]int
	if opts.RecordShapes {
		shapes = make([][]int, len(inputs))
		for i, in := range inputs {
			shapes[i] = append([]int{}, in.Shape()...)
		}
	}

	idx := s.begin(name, KindOp, shapes, captureStack(opts.stackDepth()))
	before := b.KernelTime()
	results := fn()

	m := measurement{device: b.KernelTime() - before}
	if opts.ProfileMemory {
		for _, r := range results {
			if r == nil || sharesAny(r, inputs) {
				continue
			}
			if r.Device().IsHost() {
				m.hostBytes += int64(r.ByteSize())
			} else {
				m.deviceBytes += int64(r.ByteSize())
			}
		}
	}
	s.end(idx, m)
	return results
}

func (b *Backend[B]) record1(name string, fn func() *tensor.RawTensor, inputs ...*tensor.RawTensor) *tensor.RawTensor {
	return b.record(name, inputs, func() []*tensor.RawTensor {
		return []*tensor.RawTensor{fn()}
	})[0]
}

func sharesAny(r *tensor.RawTensor, inputs []*tensor.RawTensor) bool {
	for _, in := range inputs {
		if r.SharesBuffer(in) {
			return true
		}
	}
	return false
}

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::add", func() *tensor.RawTensor { return b.inner.Add(x, y) }, x, y)
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::sub", func() *tensor.RawTensor { return b.inner.Sub(x, y) }, x, y)
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::mul", func() *tensor.RawTensor { return b.inner.Mul(x, y) }, x, y)
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::div", func() *tensor.RawTensor { return b.inner.Div(x, y) }, x, y)
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::matmul", func() *tensor.RawTensor { return b.inner.MatMul(x, y) }, x, y)
}

// Reshape records a view; it never allocates.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.record1("born::reshape", func() *tensor.RawTensor { return b.inner.Reshape(x, newShape) }, x)
}

// Transpose permutes dimensions and records the operation.
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.record1("born::transpose", func() *tensor.RawTensor { return b.inner.Transpose(x, axes...) }, x)
}

// MulScalar records a scalar multiplication.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record1("born::mul_scalar", func() *tensor.RawTensor { return b.inner.MulScalar(x, scalar) }, x)
}

// AddScalar records a scalar addition.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record1("born::add_scalar", func() *tensor.RawTensor { return b.inner.AddScalar(x, scalar) }, x)
}

// DivScalar records a scalar division.
func (b *Backend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.record1("born::div_scalar", func() *tensor.RawTensor { return b.inner.DivScalar(x, scalar) }, x)
}

// Greater records an element-wise x > y.
func (b *Backend[B]) Greater(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::gt", func() *tensor.RawTensor { return b.inner.Greater(x, y) }, x, y)
}

// Lower records an element-wise x < y.
func (b *Backend[B]) Lower(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::lt", func() *tensor.RawTensor { return b.inner.Lower(x, y) }, x, y)
}

// Equal records an element-wise x == y.
func (b *Backend[B]) Equal(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::eq", func() *tensor.RawTensor { return b.inner.Equal(x, y) }, x, y)
}

// Sum records a full reduction.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::sum", func() *tensor.RawTensor { return b.inner.Sum(x) }, x)
}

// SumDim records a reduction along dim.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.record1("born::sum_dim", func() *tensor.RawTensor { return b.inner.SumDim(x, dim, keepDim) }, x)
}

// MeanDim records a mean along dim.
func (b *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.record1("born::mean_dim", func() *tensor.RawTensor { return b.inner.MeanDim(x, dim, keepDim) }, x)
}

// Nonzero records the coordinate search.
func (b *Backend[B]) Nonzero(x *tensor.RawTensor) []*tensor.RawTensor {
	return b.record("born::nonzero", []*tensor.RawTensor{x}, func() []*tensor.RawTensor { return b.inner.Nonzero(x) })
}

// Cast records a dtype conversion.
func (b *Backend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.record1("born::cast", func() *tensor.RawTensor { return b.inner.Cast(x, dtype) }, x)
}

// ToDevice records a host to device copy.
func (b *Backend[B]) ToDevice(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::to_device", func() *tensor.RawTensor { return b.inner.ToDevice(x) }, x)
}

// ToHost records a device to host copy.
func (b *Backend[B]) ToHost(x *tensor.RawTensor) *tensor.RawTensor {
	return b.record1("born::to_host", func() *tensor.RawTensor { return b.inner.ToHost(x) }, x)
}
