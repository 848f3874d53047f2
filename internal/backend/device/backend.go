// Package device implements a simulated accelerator backend.
//
// Tensors produced here carry tensor.Accelerator and live in memory the
// backend accounts for separately from the host. Kernels run the host
// implementations through internal/parallel, and every kernel adds its wall
// time to a kernel clock so a profiler can attribute device time per op.
// Copies between host and device go through ToDevice/ToHost and can be
// throttled to a fixed bandwidth so their cost shows up in reports.
package device

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

// Config configures the simulated device.
type Config struct {
	// Bandwidth is the simulated host<->device copy rate in bytes per second.
	// Zero disables throttling.
	Bandwidth float64
	// Parallel controls kernel fan-out.
	Parallel parallel.Config
}

// DefaultConfig returns an unthrottled device using every CPU.
func DefaultConfig() Config {
	return Config{
		Parallel: parallel.DefaultConfig(),
	}
}

// Backend is the simulated accelerator.
type Backend struct {
	kernels   *cpu.CPUBackend
	bandwidth float64

	kernelNanos atomic.Int64
	transfers   atomic.Int64

	memoryStats struct {
		mu                  sync.RWMutex
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBuffers       int64
	}
}

// MemoryStats represents device memory usage statistics.
type MemoryStats struct {
	// Bytes currently resident on the device
	TotalAllocatedBytes uint64
	// Peak resident bytes since backend creation
	PeakMemoryBytes uint64
	// Number of currently active buffers
	ActiveBuffers int64
}

// New creates a device backend with DefaultConfig.
func New() *Backend {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a device backend.
func NewWithConfig(cfg Config) *Backend {
	kernels := cpu.NewOn(tensor.Accelerator)
	kernels.SetParallel(cfg.Parallel)
	return &Backend{
		kernels:   kernels,
		bandwidth: cfg.Bandwidth,
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "Accelerator"
}

// Device returns tensor.Accelerator.
func (b *Backend) Device() tensor.Device {
	return tensor.Accelerator
}

// KernelTime returns the cumulative time spent inside device kernels and
// transfers since the backend was created.
func (b *Backend) KernelTime() time.Duration {
	return time.Duration(b.kernelNanos.Load())
}

// Transfers returns the number of host<->device copies performed.
func (b *Backend) Transfers() int64 {
	return b.transfers.Load()
}

// Synchronize waits for outstanding device work. Kernels complete before
// returning, so there is never anything to wait for.
func (b *Backend) Synchronize() {}

// MemoryStats returns current device memory usage statistics.
func (b *Backend) MemoryStats() MemoryStats {
	b.memoryStats.mu.RLock()
	defer b.memoryStats.mu.RUnlock()

	return MemoryStats{
		TotalAllocatedBytes: b.memoryStats.totalAllocatedBytes,
		PeakMemoryBytes:     b.memoryStats.peakMemoryBytes,
		ActiveBuffers:       b.memoryStats.activeBuffers,
	}
}

// Free releases a device tensor's buffer and updates memory statistics.
func (b *Backend) Free(t *tensor.RawTensor) {
	if t == nil || t.Device() != tensor.Accelerator {
		return
	}
	b.trackBufferRelease(uint64(t.ByteSize())) //nolint:gosec // ByteSize is never negative
	t.Release()
}

// trackBufferAllocation records a buffer allocation in memory statistics.
func (b *Backend) trackBufferAllocation(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	b.memoryStats.totalAllocatedBytes += size
	b.memoryStats.activeBuffers++

	// Update peak memory if needed
	if b.memoryStats.totalAllocatedBytes > b.memoryStats.peakMemoryBytes {
		b.memoryStats.peakMemoryBytes = b.memoryStats.totalAllocatedBytes
	}
}

// trackBufferRelease records a buffer release in memory statistics.
func (b *Backend) trackBufferRelease(size uint64) {
	b.memoryStats.mu.Lock()
	defer b.memoryStats.mu.Unlock()

	if b.memoryStats.totalAllocatedBytes >= size {
		b.memoryStats.totalAllocatedBytes -= size
	}
	if b.memoryStats.activeBuffers > 0 {
		b.memoryStats.activeBuffers--
	}
}

// requireResident panics unless every operand lives on the device.
func requireResident(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.Device() != tensor.Accelerator {
			panic(fmt.Sprintf("%s: expected tensor on %s, got %s", op, tensor.Accelerator, t.Device()))
		}
	}
}

// launch times fn against the kernel clock and accounts for the buffers it
// allocated. Results that alias an input are not counted twice.
func (b *Backend) launch(fn func() []*tensor.RawTensor, inputs ...*tensor.RawTensor) []*tensor.RawTensor {
	start := time.Now()
	results := fn()
	b.kernelNanos.Add(time.Since(start).Nanoseconds())

	for _, r := range results {
		if aliases(r, inputs) {
			continue
		}
		b.trackBufferAllocation(uint64(r.ByteSize())) //nolint:gosec // ByteSize is never negative
	}
	return results
}

func (b *Backend) launch1(fn func() *tensor.RawTensor, inputs ...*tensor.RawTensor) *tensor.RawTensor {
	return b.launch(func() []*tensor.RawTensor {
		return []*tensor.RawTensor{fn()}
	}, inputs...)[0]
}

func aliases(r *tensor.RawTensor, inputs []*tensor.RawTensor) bool {
	for _, in := range inputs {
		if r.SharesBuffer(in) {
			return true
		}
	}
	return false
}

// throttle sleeps for the time a copy of n bytes takes at the configured bandwidth.
func (b *Backend) throttle(n int) {
	if b.bandwidth <= 0 || n == 0 {
		return
	}
	time.Sleep(time.Duration(float64(n) / b.bandwidth * float64(time.Second)))
}
