package profiler

import "context"

// Region is a named span of user code opened with StartRegion.
type Region struct {
	s   *Session
	idx int
}

// StartRegion opens a region named name in the session of the profiler
// attached to ctx. Without a profiler or an active session the returned
// region does nothing, so instrumented code can run unprofiled.
//
// Example:
//
//	r := profiler.StartRegion(ctx, "MASK INDICES")
//	defer r.End()
func StartRegion(ctx context.Context, name string) *Region {
	p := FromContext(ctx)
	if p == nil {
		return &Region{idx: -1}
	}
	s := p.Active()
	if s == nil {
		return &Region{idx: -1}
	}
	return &Region{
		s:   s,
		idx: s.begin(name, KindRegion, nil, captureStack(p.opts.stackDepth())),
	}
}

// End closes the region. Calling End more than once, or after the session
// stopped, has no effect.
func (r *Region) End() {
	if r == nil || r.s == nil || r.idx < 0 {
		return
	}
	r.s.end(r.idx, measurement{})
	r.idx = -1
}
