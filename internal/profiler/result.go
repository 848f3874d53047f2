package profiler

import "time"

// Result is the frozen outcome of a stopped session.
type Result struct {
	id       string
	start    time.Time
	duration time.Duration
	opts     Options
	events   []Event
}

// ID returns the session id.
func (r *Result) ID() string {
	return r.id
}

// StartTime returns when the session opened.
func (r *Result) StartTime() time.Time {
	return r.start
}

// Duration returns the wall time between Start and Stop.
func (r *Result) Duration() time.Duration {
	return r.duration
}

// Options returns the options the session recorded with.
func (r *Result) Options() Options {
	return r.opts
}

// Events returns a copy of the recorded events in start order.
func (r *Result) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// SelfCPUTotal sums self CPU time over every event.
func (r *Result) SelfCPUTotal() time.Duration {
	var total time.Duration
	for _, e := range r.events {
		total += e.SelfCPUTime
	}
	return total
}

// SelfDeviceTotal sums self device time over every event.
func (r *Result) SelfDeviceTotal() time.Duration {
	var total time.Duration
	for _, e := range r.events {
		total += e.SelfDeviceTime
	}
	return total
}

// Region returns the first region named name.
func (r *Result) Region(name string) (Event, bool) {
	for _, e := range r.events {
		if e.Kind == KindRegion && e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}
