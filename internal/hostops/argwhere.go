// Package hostops holds host-side array helpers that work on plain Go
// slices, outside any tensor backend. They play the part NumPy plays next
// to a tensor library: data has to be on the host before they can run.
package hostops

import (
	"fmt"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Number is the element constraint for host helpers.
type Number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Greater returns a predicate that reports v > threshold.
// The threshold is converted to T first, so a float64 threshold compared
// against float32 data rounds the same way the data does.
func Greater[T Number](threshold float64) func(T) bool {
	th := T(threshold)
	return func(v T) bool { return v > th }
}

// ArgWhere returns the coordinates of every element of data (laid out
// row-major in shape) for which pred holds. The result is an [N, rank]
// matrix flattened row-major, and N.
//
// A 0-D shape is treated as [1].
func ArgWhere[T Number](data []T, shape tensor.Shape, pred func(T) bool) ([]int64, int) {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("argwhere: shape %v does not match %d elements", shape, len(data)))
	}
	if len(shape) == 0 {
		shape = tensor.Shape{1}
	}

	rank := len(shape)
	var out []int64
	coords := make([]int64, rank)
	n := 0
	for i, v := range data {
		if !pred(v) {
			continue
		}
		shape.Unravel(i, coords)
		out = append(out, coords...)
		n++
	}
	if out == nil {
		out = []int64{}
	}
	return out, n
}

// ArgWhereTensor runs ArgWhere over a host tensor and wraps the [N, rank]
// result in a new host tensor on the same backend. It panics if t is not
// in host memory.
func ArgWhereTensor[T Number, B tensor.Backend](t *tensor.Tensor[T, B], pred func(T) bool) *tensor.Tensor[int64, B] {
	if !t.Device().IsHost() {
		panic(fmt.Sprintf("argwhere: tensor must be on the host, got %s", t.Device()))
	}

	rank := max(len(t.Shape()), 1)
	flat, n := ArgWhere(t.Data(), t.Shape(), pred)
	out, err := tensor.FromSlice(flat, tensor.Shape{n, rank}, t.Backend())
	if err != nil {
		panic(fmt.Sprintf("argwhere: %v", err))
	}
	return out
}
