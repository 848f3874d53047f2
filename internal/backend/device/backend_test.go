package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
)

func upload[T tensor.DType](t *testing.T, dev *Backend, data []T, shape ...int) *tensor.Tensor[T, *Backend] {
	t.Helper()
	host, err := tensor.FromSlice[T](data, tensor.Shape(shape), cpu.New())
	require.NoError(t, err)
	return tensor.To(host, dev)
}

func TestBackend_Metadata(t *testing.T) {
	dev := New()
	assert.Equal(t, "Accelerator", dev.Name())
	assert.Equal(t, tensor.Accelerator, dev.Device())
	assert.Zero(t, dev.KernelTime())
	dev.Synchronize()
}

func TestBackend_ResultsStayOnDevice(t *testing.T) {
	dev := New()

	x := upload(t, dev, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	w := upload(t, dev, []float32{1, 0, 0, 1, 1, 1}, 2, 3)

	y := x.MatMul(w.T())
	assert.Equal(t, tensor.Accelerator, y.Device())
	assert.Equal(t, []float32{1, 6, 4, 15}, y.Data())

	rows := y.SumDim(1, false)
	assert.Equal(t, tensor.Accelerator, rows.Device())
	assert.Equal(t, []float32{7, 19}, rows.Data())
	assert.InDelta(t, 13.0, float64(rows.Mean().Item()), 1e-6)
}

func TestBackend_RejectsHostOperands(t *testing.T) {
	dev := New()
	x := upload(t, dev, []float32{1, 2}, 2)

	host, err := tensor.FromSlice[float32]([]float32{1, 2}, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)

	assert.Panics(t, func() { dev.Add(x.Raw(), host.Raw()) })
	assert.Panics(t, func() { dev.ToHost(host.Raw()) })
	assert.Panics(t, func() { dev.ToDevice(x.Raw()) })
}

func TestBackend_GreaterNonzero(t *testing.T) {
	dev := NewWithConfig(Config{
		Parallel: parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 2},
	})

	mask := upload(t, dev, []float64{
		0.1, 0.9, 0.3,
		0.8, 0.2, 0.7,
	}, 2, 3)

	idx := mask.GreaterScalar(0.5).Nonzero()
	require.Len(t, idx, 2)
	for _, v := range idx {
		assert.Equal(t, tensor.Accelerator, v.Device())
	}
	assert.Equal(t, []int64{0, 1, 1}, idx[0].Data())
	assert.Equal(t, []int64{1, 0, 2}, idx[1].Data())
}

func TestBackend_Transfers(t *testing.T) {
	dev := New()
	x := upload(t, dev, []float32{1, 2, 3}, 3)
	assert.Equal(t, int64(1), dev.Transfers())

	back := tensor.To(x, cpu.New())
	assert.Equal(t, tensor.CPU, back.Device())
	assert.Equal(t, []float32{1, 2, 3}, back.Data())
	assert.Equal(t, int64(2), dev.Transfers())
}

func TestBackend_ThrottledTransferAdvancesClock(t *testing.T) {
	// 4000 bytes at 100 KB/s is 40ms.
	dev := NewWithConfig(Config{Bandwidth: 100_000})
	data := make([]float32, 1000)

	before := dev.KernelTime()
	upload(t, dev, data, 1000)
	assert.GreaterOrEqual(t, dev.KernelTime()-before, 40*time.Millisecond)
}

func TestBackend_MemoryStats(t *testing.T) {
	dev := New()

	stats := dev.MemoryStats()
	assert.Zero(t, stats.TotalAllocatedBytes)
	assert.Zero(t, stats.ActiveBuffers)

	x := upload(t, dev, []float32{1, 2, 3, 4}, 4) // 16 bytes
	y := x.Add(x)                                 // 16 bytes

	stats = dev.MemoryStats()
	assert.Equal(t, uint64(32), stats.TotalAllocatedBytes)
	assert.Equal(t, int64(2), stats.ActiveBuffers)
	assert.Equal(t, uint64(32), stats.PeakMemoryBytes)

	// Views and same-dtype casts do not allocate.
	_ = y.Reshape(2, 2)
	_ = y.Float32()
	assert.Equal(t, uint64(32), dev.MemoryStats().TotalAllocatedBytes)

	dev.Free(x.Raw())
	stats = dev.MemoryStats()
	assert.Equal(t, uint64(16), stats.TotalAllocatedBytes)
	assert.Equal(t, int64(1), stats.ActiveBuffers)
	assert.Equal(t, uint64(32), stats.PeakMemoryBytes)
}

func TestBackend_ComparisonScalarIsUploaded(t *testing.T) {
	dev := New()
	mask := upload(t, dev, []float32{0.1, 0.9, 0.2, 0.8}, 4) // 16 bytes, 1 transfer
	require.Equal(t, int64(1), dev.Transfers())

	above := mask.GreaterScalar(0.5)
	assert.Equal(t, []bool{false, true, false, true}, tensor.To(above, cpu.New()).Data())

	// The scalar crossed once and is resident next to the bool result.
	assert.Equal(t, int64(3), dev.Transfers(), "mask up, scalar up, result down")
	stats := dev.MemoryStats()
	assert.Equal(t, uint64(16+4+4), stats.TotalAllocatedBytes)
	assert.Equal(t, int64(3), stats.ActiveBuffers)
}

func TestBackend_NonzeroEmpty(t *testing.T) {
	dev := New()
	mask := upload(t, dev, make([]float32, 24), 2, 3, 4)

	idx := mask.GreaterScalar(1).Nonzero()
	require.Len(t, idx, 3)
	for _, v := range idx {
		assert.Equal(t, 0, v.NumElements())
	}
}
