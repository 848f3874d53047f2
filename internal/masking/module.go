// Package masking implements the toy module the profiler is demonstrated
// on: a linear projection followed by a threshold that selects positions of
// a separate mask tensor.
//
// The projection is identical across variants. Only the way mask indices
// are found changes, which is what the profiling report is meant to show.
package masking

import (
	"context"

	"github.com/born-ml/bornprof/internal/hostops"
	"github.com/born-ml/bornprof/internal/nn"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/tensor"
)

// Region names opened by Forward.
const (
	RegionLinear = "LINEAR PASS"
	RegionMask   = "MASK INDICES"
)

// Module projects a feature batch and selects the mask positions above the
// resulting threshold.
//
// Type parameters:
//   - M: mask element type
//   - B: backend holding the layer, the inputs and the mask
//   - H: host backend used by the HostCopy strategy
type Module[M tensor.Float, B, H tensor.Backend] struct {
	linear   *nn.Linear[B]
	host     H
	strategy Strategy
}

// New creates a module around linear.
func New[M tensor.Float, B, H tensor.Backend](linear *nn.Linear[B], host H, strategy Strategy) *Module[M, B, H] {
	return &Module[M, B, H]{
		linear:   linear,
		host:     host,
		strategy: strategy,
	}
}

// Linear returns the projection layer.
func (m *Module[M, B, H]) Linear() *nn.Linear[B] {
	return m.linear
}

// Strategy returns the index strategy.
func (m *Module[M, B, H]) Strategy() Strategy {
	return m.strategy
}

// Forward runs the projection inside the LINEAR PASS region and the
// threshold plus index search inside MASK INDICES. Regions are recorded
// only when ctx carries a profiler with an active session.
//
// Shape, dtype and device mismatches panic in the backend.
func (m *Module[M, B, H]) Forward(ctx context.Context, input *tensor.Tensor[float32, B], mask *tensor.Tensor[M, B]) *Output[B] {
	r := profiler.StartRegion(ctx, RegionLinear)
	projected := m.linear.Forward(input)
	r.End()

	r = profiler.StartRegion(ctx, RegionMask)
	defer r.End()

	out := &Output[B]{
		Projected: projected,
		Threshold: Threshold(projected, m.host),
		rank:      max(len(mask.Shape()), 1),
	}

	switch m.strategy {
	case HostCopy:
		hostMask := tensor.To(mask, m.host)
		idx := hostops.ArgWhereTensor(hostMask, hostops.Greater[M](out.Threshold))
		out.rows = tensor.To(idx, mask.Backend())
	case DeviceResident:
		above := mask.GreaterScalar(M(out.Threshold))
		out.coords = above.Nonzero()
		tensor.Free(mask.Backend(), above.Raw())
	}
	return out
}

// Threshold is the mean over rows of the per-row sums of out. The scalar is
// copied to host before it is read and the reduction buffers are freed.
func Threshold[B, H tensor.Backend](out *tensor.Tensor[float32, B], host H) float64 {
	sums := out.SumDim(1, false)
	mean := sums.Mean()
	th := tensor.To(mean, host).Item()
	tensor.Free(out.Backend(), sums.Raw(), mean.Raw())
	return float64(th)
}
