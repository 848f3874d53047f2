package profiler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind distinguishes user regions from backend operations.
type Kind int

// Event kinds.
const (
	KindRegion Kind = iota
	KindOp
)

// String returns "region" or "op".
func (k Kind) String() string {
	if k == KindOp {
		return "op"
	}
	return "region"
}

// Frame is one entry of a captured call stack.
type Frame struct {
	Function string
	File     string
	Line     int
}

// String formats the frame as "file(line): function".
func (f Frame) String() string {
	return fmt.Sprintf("%s(%d): %s", filepath.Base(f.File), f.Line, shortFunc(f.Function))
}

// shortFunc drops the import path from a fully qualified function name.
func shortFunc(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	return fn
}

// Event is one recorded span: a region or a backend op.
//
// Totals include nested events. The Self fields are filled in when the
// session stops and exclude everything recorded under the event.
type Event struct {
	Name   string
	Kind   Kind
	Parent int // index into the session's events, -1 for top level
	Depth  int

	// Start is the offset from the session start.
	Start time.Duration

	CPUTime    time.Duration
	DeviceTime time.Duration
	// HostBytes and DeviceBytes count memory allocated by results.
	HostBytes   int64
	DeviceBytes int64

	SelfCPUTime     time.Duration
	SelfDeviceTime  time.Duration
	SelfHostBytes   int64
	SelfDeviceBytes int64

	InputShapes [][]int
	Stack       []Frame

	open bool
}

// End is the offset from the session start at which the event closed.
func (e Event) End() time.Duration {
	return e.Start + e.CPUTime
}

// shapesKey renders input shapes the way the table prints them.
func shapesKey(shapes [][]int) string {
	if len(shapes) == 0 {
		return "[]"
	}
	parts := make([]string, len(shapes))
	for i, s := range shapes {
		dims := make([]string, len(s))
		for j, d := range s {
			dims[j] = fmt.Sprint(d)
		}
		parts[i] = "[" + strings.Join(dims, ", ") + "]"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func stackKey(frames []Frame) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = f.String()
	}
	return strings.Join(parts, "\n")
}
