package cpu

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

// Nonzero returns the coordinates of every non-zero (or true) element of x,
// one int64 vector per dimension. Coordinates come out in row-major order.
//
// The scan is split into chunks: each worker first counts its hits, an
// exclusive prefix sum over the counts gives every chunk its write offset,
// and a second pass fills the coordinate vectors without synchronization.
// A 0-D input is treated as a single-element vector.
func (cpu *CPUBackend) Nonzero(x *tensor.RawTensor) []*tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		shape = tensor.Shape{1}
	}

	var truth func(i int) bool
	switch x.DType() {
	case tensor.Bool:
		src := x.AsBool()
		truth = func(i int) bool { return src[i] }
	case tensor.Float32:
		truth = nonzeroOf(x.AsFloat32())
	case tensor.Float64:
		truth = nonzeroOf(x.AsFloat64())
	case tensor.Int32:
		truth = nonzeroOf(x.AsInt32())
	case tensor.Int64:
		truth = nonzeroOf(x.AsInt64())
	case tensor.Uint8:
		truth = nonzeroOf(x.AsUint8())
	default:
		panic(fmt.Sprintf("nonzero: unsupported dtype %s", x.DType()))
	}

	ranges := parallel.Split(x.NumElements(), cpu.par)
	counts := make([]int, len(ranges))
	parallel.ForRanges(ranges, func(c int, r parallel.Range) {
		n := 0
		for i := r.Start; i < r.End; i++ {
			if truth(i) {
				n++
			}
		}
		counts[c] = n
	})

	offsets, total := exclusiveScan(counts)

	rank := len(shape)
	out := make([]*tensor.RawTensor, rank)
	cols := make([][]int64, rank)
	for d := range out {
		out[d] = cpu.newResult("nonzero", tensor.Shape{total}, tensor.Int64)
		cols[d] = out[d].AsInt64()
	}
	if total == 0 {
		return out
	}

	parallel.ForRanges(ranges, func(c int, r parallel.Range) {
		pos := offsets[c]
		coords := make([]int64, rank)
		for i := r.Start; i < r.End; i++ {
			if !truth(i) {
				continue
			}
			shape.Unravel(i, coords)
			for d, v := range coords {
				cols[d][pos] = v
			}
			pos++
		}
	})

	return out
}

func nonzeroOf[T castable](src []T) func(i int) bool {
	return func(i int) bool { return src[i] != 0 }
}

// exclusiveScan returns the running offsets of counts and their total.
func exclusiveScan(counts []int) ([]int, int) {
	offsets := make([]int, len(counts))
	total := 0
	for i, c := range counts {
		offsets[i] = total
		total += c
	}
	return offsets, total
}
