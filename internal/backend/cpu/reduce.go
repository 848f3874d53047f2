package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Sum computes the total sum of all elements in the tensor (scalar result).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	// Result is a scalar (empty shape)
	result := cpu.newResult("sum", tensor.Shape{}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumAll(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumAll(x.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
//
// Example:
//
//	y := backend.SumDim(x, -1, true)   // [2, 3, 4] -> [2, 3, 1]
//	z := backend.SumDim(x, -1, false)  // [2, 3, 4] -> [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim computes the mean of tensor elements along the specified dimension.
// Reducing an empty dimension yields NaN for floating point tensors.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(name, dim, len(shape))

	result := cpu.newResult(name, reducedShape(shape, dim, keepDim), x.DType())
	outer, size, inner := splitAt(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		reduceKernel(result.AsFloat32(), x.AsFloat32(), outer, size, inner, mean)
	case tensor.Float64:
		reduceKernel(result.AsFloat64(), x.AsFloat64(), outer, size, inner, mean)
	case tensor.Int32:
		reduceKernel(result.AsInt32(), x.AsInt32(), outer, size, inner, mean)
	case tensor.Int64:
		reduceKernel(result.AsInt64(), x.AsInt64(), outer, size, inner, mean)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func normalizeDim(name string, dim, ndim int) int {
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", name, dim, ndim))
	}
	return dim
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}

// splitAt views shape as [outer, size, inner] around dim.
func splitAt(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

func reduceKernel[T numeric](dst, src []T, outer, size, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		base := o * size * inner
		for in := 0; in < inner; in++ {
			var acc T
			for s := 0; s < size; s++ {
				acc += src[base+s*inner+in]
			}
			if mean {
				acc /= T(size)
			}
			dst[o*inner+in] = acc
		}
	}
}

func sumAll[T numeric](src []T) T {
	var acc T
	for _, v := range src {
		acc += v
	}
	return acc
}
