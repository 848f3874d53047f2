package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

type castable interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// Cast converts the tensor to a different data type.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	// No-op if same dtype
	if x.DType() == dtype {
		return x
	}

	result := cpu.newResult("cast", x.Shape(), dtype)

	switch x.DType() {
	case tensor.Float32:
		castFrom(result, x.AsFloat32(), cpu.par)
	case tensor.Float64:
		castFrom(result, x.AsFloat64(), cpu.par)
	case tensor.Int32:
		castFrom(result, x.AsInt32(), cpu.par)
	case tensor.Int64:
		castFrom(result, x.AsInt64(), cpu.par)
	case tensor.Uint8:
		castFrom(result, x.AsUint8(), cpu.par)
	case tensor.Bool:
		src := x.AsBool()
		bytes := make([]uint8, len(src))
		for i, v := range src {
			if v {
				bytes[i] = 1
			}
		}
		castFrom(result, bytes, cpu.par)
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %v", x.DType()))
	}

	return result
}

func castFrom[S castable](result *tensor.RawTensor, src []S, cfg parallel.Config) {
	switch result.DType() {
	case tensor.Float32:
		castKernel(result.AsFloat32(), src, cfg)
	case tensor.Float64:
		castKernel(result.AsFloat64(), src, cfg)
	case tensor.Int32:
		castKernel(result.AsInt32(), src, cfg)
	case tensor.Int64:
		castKernel(result.AsInt64(), src, cfg)
	case tensor.Uint8:
		castKernel(result.AsUint8(), src, cfg)
	case tensor.Bool:
		dst := result.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %v", result.DType()))
	}
}

func castKernel[D, S castable](dst []D, src []S, cfg parallel.Config) {
	parallel.ForRanges(parallel.Split(len(src), cfg), func(_ int, r parallel.Range) {
		for i := r.Start; i < r.End; i++ {
			dst[i] = D(src[i])
		}
	})
}
