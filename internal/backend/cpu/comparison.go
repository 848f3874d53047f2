package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

// Comparison operations - return bool tensors.

type compareOp int

const (
	cmpGreater compareOp = iota
	cmpLower
	cmpEqual
)

func compare[T numeric](op compareOp, x, y T) bool {
	switch op {
	case cmpGreater:
		return x > y
	case cmpLower:
		return x < y
	default:
		return x == y
	}
}

// Greater returns a > b element-wise.
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compare("greater", a, b, cmpGreater)
}

// Lower returns a < b element-wise.
func (cpu *CPUBackend) Lower(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compare("lower", a, b, cmpLower)
}

// Equal returns a == b element-wise.
func (cpu *CPUBackend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compare("equal", a, b, cmpEqual)
}

func (cpu *CPUBackend) compare(name string, a, b *tensor.RawTensor, op compareOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := cpu.newResult(name, outShape, tensor.Bool)
	dst := result.AsBool()

	switch a.DType() {
	case tensor.Float32:
		compareKernel(dst, a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	case tensor.Float64:
		compareKernel(dst, a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	case tensor.Int32:
		compareKernel(dst, a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	case tensor.Int64:
		compareKernel(dst, a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBroadcast, op, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func compareKernel[T numeric](dst []bool, a, b []T, aShape, bShape, outShape tensor.Shape, broadcast bool, op compareOp, cfg parallel.Config) {
	ranges := parallel.Split(len(dst), cfg)

	switch {
	case !broadcast:
		parallel.ForRanges(ranges, func(_ int, r parallel.Range) {
			for i := r.Start; i < r.End; i++ {
				dst[i] = compare(op, a[i], b[i])
			}
		})
	case len(b) == 1 && len(a) == len(dst):
		// Scalar right-hand side is the common case (mask > threshold).
		s := b[0]
		parallel.ForRanges(ranges, func(_ int, r parallel.Range) {
			for i := r.Start; i < r.End; i++ {
				dst[i] = compare(op, a[i], s)
			}
		})
	default:
		outStrides := outShape.ComputeStrides()
		aStrides := computeBroadcastStridesForShape(aShape, outShape)
		bStrides := computeBroadcastStridesForShape(bShape, outShape)
		parallel.ForRanges(ranges, func(_ int, r parallel.Range) {
			for i := r.Start; i < r.End; i++ {
				ai := computeFlatIndex(i, outStrides, aStrides)
				bi := computeFlatIndex(i, outStrides, bStrides)
				dst[i] = compare(op, a[ai], b[bi])
			}
		})
	}
}
