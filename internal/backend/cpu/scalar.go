package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulScalar", x, scalar, opMul)
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addScalar", x, scalar, opAdd)
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divScalar", x, scalar, opDiv)
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any, op binaryOp) *tensor.RawTensor {
	result := cpu.newResult(name, x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		scalarKernel(result.AsFloat32(), x.AsFloat32(), scalarAs[float32](name, scalar), op)
	case tensor.Float64:
		scalarKernel(result.AsFloat64(), x.AsFloat64(), scalarAs[float64](name, scalar), op)
	case tensor.Int32:
		scalarKernel(result.AsInt32(), x.AsInt32(), scalarAs[int32](name, scalar), op)
	case tensor.Int64:
		scalarKernel(result.AsInt64(), x.AsInt64(), scalarAs[int64](name, scalar), op)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, x.DType()))
	}

	return result
}

func scalarKernel[T numeric](dst, src []T, s T, op binaryOp) {
	for i, v := range src {
		dst[i] = apply(op, v, s)
	}
}

// scalarAs converts a Go numeric scalar to the kernel element type.
func scalarAs[T numeric](name string, v any) T {
	switch s := v.(type) {
	case float32:
		return T(s)
	case float64:
		return T(s)
	case int32:
		return T(s)
	case int64:
		return T(s)
	case int:
		return T(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, v))
	}
}
