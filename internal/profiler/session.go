package profiler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session collects events between Profiler.Start and Session.Stop.
type Session struct {
	id    uuid.UUID
	p     *Profiler
	start time.Time

	mu     sync.Mutex
	events []Event
	stack  []int // indices of open events, innermost last
	result *Result
}

func newSession(p *Profiler) *Session {
	return &Session{
		id:    uuid.New(),
		p:     p,
		start: p.now(),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id.String()
}

// StartTime returns when the session opened.
func (s *Session) StartTime() time.Time {
	return s.start
}

// begin opens an event nested under the innermost open event.
// It returns -1 once the session has stopped.
func (s *Session) begin(name string, kind Kind, shapes [][]int, stack []Frame) int {
	at := s.p.now().Sub(s.start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return -1
	}

	parent, depth := -1, 0
	if n := len(s.stack); n > 0 {
		parent = s.stack[n-1]
		depth = s.events[parent].Depth + 1
	}

	s.events = append(s.events, Event{
		Name:        name,
		Kind:        kind,
		Parent:      parent,
		Depth:       depth,
		Start:       at,
		InputShapes: shapes,
		Stack:       stack,
		open:        true,
	})
	idx := len(s.events) - 1
	s.stack = append(s.stack, idx)
	return idx
}

// measurement is what an op reports when it finishes.
type measurement struct {
	device      time.Duration
	hostBytes   int64
	deviceBytes int64
}

// end closes event idx. Events opened after it and still open are closed
// at the same instant.
func (s *Session) end(idx int, m measurement) {
	at := s.p.now().Sub(s.start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil || idx < 0 || idx >= len(s.events) || !s.events[idx].open {
		return
	}
	s.closeLocked(idx, at)
	e := &s.events[idx]
	e.DeviceTime = m.device
	e.HostBytes = m.hostBytes
	e.DeviceBytes = m.deviceBytes
}

func (s *Session) closeLocked(idx int, at time.Duration) {
	for n := len(s.stack); n > 0; n-- {
		top := s.stack[n-1]
		s.stack = s.stack[:n-1]
		e := &s.events[top]
		e.open = false
		e.CPUTime = max(at-e.Start, 0)
		if top == idx {
			return
		}
	}
}

// Stop closes the session and returns its immutable result. Regions still
// open are closed at the stop time. A second Stop returns ErrSessionClosed.
func (s *Session) Stop() (*Result, error) {
	at := s.p.now().Sub(s.start)

	s.mu.Lock()
	if s.result != nil {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if len(s.stack) > 0 {
		s.closeLocked(s.stack[0], at)
	}

	events := make([]Event, len(s.events))
	copy(events, s.events)
	finalize(events)

	s.result = &Result{
		id:       s.ID(),
		start:    s.start,
		duration: at,
		opts:     s.p.opts,
		events:   events,
	}
	res := s.result
	s.mu.Unlock()

	s.p.detach(s)
	return res, nil
}

// finalize derives self metrics. Regions carry no device time or memory of
// their own, so their totals are the sums of their children.
func finalize(events []Event) {
	// Children always follow their parent, so a reverse walk sees every
	// child before its parent.
	childCPU := make([]time.Duration, len(events))
	childDevice := make([]time.Duration, len(events))
	childHost := make([]int64, len(events))
	childDeviceBytes := make([]int64, len(events))

	for i := len(events) - 1; i >= 0; i-- {
		e := &events[i]
		if e.Kind == KindRegion {
			e.DeviceTime = childDevice[i]
			e.HostBytes = childHost[i]
			e.DeviceBytes = childDeviceBytes[i]
		}
		e.SelfCPUTime = max(e.CPUTime-childCPU[i], 0)
		e.SelfDeviceTime = e.DeviceTime - childDevice[i]
		e.SelfHostBytes = e.HostBytes - childHost[i]
		e.SelfDeviceBytes = e.DeviceBytes - childDeviceBytes[i]

		if p := e.Parent; p >= 0 {
			childCPU[p] += e.CPUTime
			childDevice[p] += e.DeviceTime
			childHost[p] += e.HostBytes
			childDeviceBytes[p] += e.DeviceBytes
		}
	}
}
