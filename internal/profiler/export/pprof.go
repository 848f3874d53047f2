package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/born-ml/bornprof/internal/logger"
)

// ErrCPUProfileActive is returned when another CPU profile is running.
var ErrCPUProfileActive = errors.New("export: cpu profile already running")

// PprofFiles names the profiles Capture wrote.
type PprofFiles struct {
	CPU  string
	Heap string
}

// Capture runs fn under the runtime CPU profiler and writes a heap profile
// afterwards. Files go to dir as <name>.pprof and <name>_mem.pprof. The
// profiles are written even when fn fails; fn's error is returned.
func Capture(ctx context.Context, dir, name string, fn func(context.Context) error) (PprofFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return PprofFiles{}, fmt.Errorf("create profile dir: %w", err)
	}
	files := PprofFiles{
		CPU:  filepath.Join(dir, name+".pprof"),
		Heap: filepath.Join(dir, name+"_mem.pprof"),
	}

	cpuFile, err := os.Create(files.CPU)
	if err != nil {
		return PprofFiles{}, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		_ = cpuFile.Close()
		_ = os.Remove(files.CPU)
		return PprofFiles{}, fmt.Errorf("%w: %v", ErrCPUProfileActive, err)
	}

	// A panicking fn must not leave the runtime profiler running.
	stopped := false
	stop := func() error {
		if stopped {
			return nil
		}
		stopped = true
		pprof.StopCPUProfile()
		return cpuFile.Close()
	}
	defer func() { _ = stop() }()

	runErr := fn(ctx)

	if err := stop(); err != nil {
		return files, fmt.Errorf("close cpu profile: %w", err)
	}

	if err := writeHeap(files.Heap); err != nil {
		return files, err
	}

	logger.L().Debug("pprof.written", "cpu", files.CPU, "heap", files.Heap)
	return files, runErr
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
