package profiler

import (
	"runtime"
	"strings"
)

// skippedPackages are stripped from captured stacks so the first frame is
// the caller's code rather than profiler or tensor plumbing.
var skippedPackages = []string{
	"github.com/born-ml/bornprof/internal/profiler.",
	"github.com/born-ml/bornprof/internal/tensor.",
	"github.com/born-ml/bornprof/internal/backend/",
	"github.com/born-ml/bornprof/profiler.",
	"github.com/born-ml/bornprof/tensor.",
	"runtime.",
}

func skipFrame(fn string) bool {
	for _, p := range skippedPackages {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

// captureStack returns up to depth caller frames outside the skipped packages.
func captureStack(depth int) []Frame {
	if depth <= 0 {
		return nil
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	out := make([]Frame, 0, depth)
	for len(out) < depth {
		f, more := frames.Next()
		if f.Function != "" && !skipFrame(f.Function) {
			out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		}
		if !more {
			break
		}
	}
	return out
}
