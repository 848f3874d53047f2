// Package profiler records where time and memory go inside a unit of work.
//
// A Profiler is attached to a context with WithProfiler. Work inside a
// session is attributed two ways: user code opens named regions with
// StartRegion, and a tensor backend wrapped with Instrument records one
// event per operation it executes. Stopping the session freezes the events
// into a Result, which aggregates them with KeyAverages and renders a
// fixed-width table.
//
// Example:
//
//	p := profiler.New(profiler.Options{ProfileMemory: true})
//	backend := profiler.Instrument(p, device.New())
//	ctx := profiler.WithProfiler(context.Background(), p)
//
//	res, err := profiler.Profile(ctx, p, func(ctx context.Context) error {
//	    r := profiler.StartRegion(ctx, "LINEAR PASS")
//	    defer r.End()
//	    layer.Forward(input)
//	    return nil
//	})
//	table, err := res.KeyAverages(profiler.GroupBy{}).Table(profiler.TableOptions{
//	    SortBy: "self_cpu_time_total", RowLimit: 5,
//	})
package profiler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sentinel errors.
var (
	ErrSessionActive  = errors.New("profiler: a session is already active")
	ErrSessionClosed  = errors.New("profiler: session already stopped")
	ErrUnknownSortKey = errors.New("profiler: unknown sort key")
)

// Options controls what a session records.
type Options struct {
	// RecordShapes stores the input shapes of every op.
	RecordShapes bool
	// ProfileMemory records bytes allocated by op results.
	ProfileMemory bool
	// WithStack captures the caller stack of every event.
	WithStack bool
	// StackDepth bounds captured stacks. Zero means 5.
	StackDepth int
}

// DefaultStackDepth is used when Options.StackDepth is zero.
const DefaultStackDepth = 5

func (o Options) stackDepth() int {
	if !o.WithStack {
		return 0
	}
	if o.StackDepth <= 0 {
		return DefaultStackDepth
	}
	return o.StackDepth
}

// Profiler owns at most one active session at a time.
type Profiler struct {
	opts Options
	now  func() time.Time

	mu     sync.Mutex
	active *Session
}

// New creates a profiler.
func New(opts Options) *Profiler {
	return &Profiler{
		opts: opts,
		now:  time.Now,
	}
}

// Options returns the recording options.
func (p *Profiler) Options() Options {
	return p.opts
}

// Start opens a session. It fails with ErrSessionActive if one is open.
func (p *Profiler) Start() (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		return nil, fmt.Errorf("start %s: %w", p.active.ID(), ErrSessionActive)
	}
	s := newSession(p)
	p.active = s
	return s, nil
}

// Active returns the open session, or nil.
func (p *Profiler) Active() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Profiler) detach(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == s {
		p.active = nil
	}
}

type ctxKey struct{}

// WithProfiler returns a context carrying p.
func WithProfiler(ctx context.Context, p *Profiler) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the profiler attached to ctx, or nil.
func FromContext(ctx context.Context) *Profiler {
	p, _ := ctx.Value(ctxKey{}).(*Profiler)
	return p
}

// Profile runs fn inside a fresh session and returns the stopped result.
// The session is stopped even when fn fails or panics.
func Profile(ctx context.Context, p *Profiler, fn func(ctx context.Context) error) (res *Result, err error) {
	s, err := p.Start()
	if err != nil {
		return nil, err
	}
	defer func() {
		r, stopErr := s.Stop()
		if err == nil {
			res, err = r, stopErr
		}
	}()

	return nil, fn(WithProfiler(ctx, p))
}
