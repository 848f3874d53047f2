package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/tensor"
)

// numeric is the element constraint for arithmetic kernels.
type numeric interface {
	~float32 | ~float64 | ~int32 | ~int64
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func apply[T numeric](op binaryOp, x, y T) T {
	switch op {
	case opAdd:
		return x + y
	case opSub:
		return x - y
	case opMul:
		return x * y
	default:
		return x / y
	}
}

// binary allocates the broadcast result and dispatches on dtype.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op binaryOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := cpu.newResult(name, outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		binaryKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast, op)
	case tensor.Float64:
		binaryKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast, op)
	case tensor.Int32:
		binaryKernel(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBroadcast, op)
	case tensor.Int64:
		binaryKernel(result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBroadcast, op)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func binaryKernel[T numeric](dst, a, b []T, aShape, bShape, outShape tensor.Shape, broadcast bool, op binaryOp) {
	if !broadcast {
		for i := range dst {
			dst[i] = apply(op, a[i], b[i])
		}
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)
	for i := range dst {
		ai := computeFlatIndex(i, outStrides, aStrides)
		bi := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = apply(op, a[ai], b[bi])
	}
}
