// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package profiler

import (
	"context"
	"time"

	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/tensor"
)

// Sentinel errors.
var (
	ErrSessionActive  = profiler.ErrSessionActive
	ErrSessionClosed  = profiler.ErrSessionClosed
	ErrUnknownSortKey = profiler.ErrUnknownSortKey
)

// Profiler owns at most one active session at a time.
type Profiler = profiler.Profiler

// Options controls what a session records.
type Options = profiler.Options

// Session collects events between Profiler.Start and Session.Stop.
type Session = profiler.Session

// Result is a stopped session: the finalized event tree.
type Result = profiler.Result

// Event is one recorded region or op with its self and total metrics.
type Event = profiler.Event

// Kind distinguishes user regions from backend operations.
type Kind = profiler.Kind

// Event kinds.
const (
	KindRegion Kind = profiler.KindRegion
	KindOp     Kind = profiler.KindOp
)

// Frame is one entry of a captured call stack.
type Frame = profiler.Frame

// Region is an open user scope. End closes it.
type Region = profiler.Region

// GroupBy selects the aggregation key beyond the event name.
type GroupBy = profiler.GroupBy

// Row is the aggregate of every event sharing one key.
type Row = profiler.Row

// Averages is the ordered list of rows produced by Result.KeyAverages.
type Averages = profiler.Averages

// TableOptions controls Averages.Table.
type TableOptions = profiler.TableOptions

// KernelClock is implemented by backends that keep their own device clock,
// such as the simulated accelerator.
type KernelClock = profiler.KernelClock

// Backend wraps a tensor.Backend and records every call into the active
// session of its profiler.
type Backend[B tensor.Backend] = profiler.Backend[B]

// DefaultStackDepth is used when Options.StackDepth is zero.
const DefaultStackDepth = profiler.DefaultStackDepth

// New creates a profiler.
func New(opts Options) *Profiler {
	return profiler.New(opts)
}

// Instrument wraps backend so its ops are recorded by p.
//
// Example:
//
//	dev := profiler.Instrument(p, device.New())
//	x := tensor.To(hostInput, dev)  // recorded as born::to_device
func Instrument[B tensor.Backend](p *Profiler, backend B) *Backend[B] {
	return profiler.Instrument(p, backend)
}

// WithProfiler returns a context carrying p.
func WithProfiler(ctx context.Context, p *Profiler) context.Context {
	return profiler.WithProfiler(ctx, p)
}

// FromContext returns the profiler attached to ctx, or nil.
func FromContext(ctx context.Context) *Profiler {
	return profiler.FromContext(ctx)
}

// StartRegion opens a named region in the active session of the profiler
// carried by ctx. Without one it returns a Region whose End does nothing.
//
// Example:
//
//	r := profiler.StartRegion(ctx, "LINEAR PASS")
//	out := layer.Forward(x)
//	r.End()
func StartRegion(ctx context.Context, name string) *Region {
	return profiler.StartRegion(ctx, name)
}

// Profile runs fn inside a fresh session and returns the stopped result.
// The session is stopped even when fn fails or panics.
func Profile(ctx context.Context, p *Profiler, fn func(ctx context.Context) error) (*Result, error) {
	return profiler.Profile(ctx, p, fn)
}

// SortKeys lists the keys accepted by Averages.Sort.
func SortKeys() []string {
	return profiler.SortKeys()
}

// FormatTime renders d with the unit used in report tables (us, ms or s).
func FormatTime(d time.Duration) string {
	return profiler.FormatTime(d)
}

// FormatMemory renders n bytes the way report tables do ("512 b", "1.50 Kb").
func FormatMemory(n int64) string {
	return profiler.FormatMemory(n)
}
