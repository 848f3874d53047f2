package masking

import (
	"slices"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Output is the result of one Forward call. The index tensors are kept in
// the form the strategy produced them; Indices normalises them.
type Output[B tensor.Backend] struct {
	// Projected is the [batch, out_features] layer output.
	Projected *tensor.Tensor[float32, B]
	// Threshold is the scalar the mask was compared against.
	Threshold float64

	rank   int
	rows   *tensor.Tensor[int64, B]   // HostCopy: [N, rank]
	coords []*tensor.Tensor[int64, B] // DeviceResident: rank vectors of N
}

// Count returns the number of selected positions.
func (o *Output[B]) Count() int {
	switch {
	case o.rows != nil:
		return o.rows.Shape()[0]
	case len(o.coords) > 0:
		return o.coords[0].NumElements()
	}
	return 0
}

// Device returns where the index tensors live.
func (o *Output[B]) Device() tensor.Device {
	if o.rows != nil {
		return o.rows.Device()
	}
	if len(o.coords) > 0 {
		return o.coords[0].Device()
	}
	return o.Projected.Device()
}

// Indices reads the index tensors into an IndexSet.
func (o *Output[B]) Indices() IndexSet {
	n := o.Count()
	set := IndexSet{rank: o.rank, coords: make([][]int64, n)}

	if o.rows != nil {
		data := o.rows.Data()
		for k := range n {
			set.coords[k] = slices.Clone(data[k*o.rank : (k+1)*o.rank])
		}
	} else {
		cols := make([][]int64, len(o.coords))
		for d, c := range o.coords {
			cols[d] = c.Data()
		}
		for k := range n {
			c := make([]int64, o.rank)
			for d := range cols {
				c[d] = cols[d][k]
			}
			set.coords[k] = c
		}
	}

	slices.SortFunc(set.coords, slices.Compare[[]int64])
	return set
}

// Checksum sums the projected output in float64.
func (o *Output[B]) Checksum() float64 {
	var sum float64
	for _, v := range o.Projected.Data() {
		sum += float64(v)
	}
	return sum
}

// IndexSet is a set of coordinates into a tensor of a fixed rank, held in
// lexicographic order.
type IndexSet struct {
	rank   int
	coords [][]int64
}

// Rank returns the number of dimensions per coordinate.
func (s IndexSet) Rank() int {
	return s.rank
}

// Len returns the number of coordinates.
func (s IndexSet) Len() int {
	return len(s.coords)
}

// Coordinates returns the coordinates in lexicographic order.
func (s IndexSet) Coordinates() [][]int64 {
	out := make([][]int64, len(s.coords))
	for i, c := range s.coords {
		out[i] = slices.Clone(c)
	}
	return out
}

// Equal reports whether both sets hold the same coordinates.
func (s IndexSet) Equal(other IndexSet) bool {
	if s.rank != other.rank || len(s.coords) != len(other.coords) {
		return false
	}
	for i := range s.coords {
		if !slices.Equal(s.coords[i], other.coords[i]) {
			return false
		}
	}
	return true
}
