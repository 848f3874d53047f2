package masking

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/internal/nn"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/tensor"
)

var maskShape = tensor.Shape{6, 7, 8}

type fixture struct {
	host   *cpu.CPUBackend
	dev    *device.Backend
	linear *nn.Linear[*device.Backend]
	input  *tensor.Tensor[float32, *device.Backend]
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	host := cpu.New()
	dev := device.New()
	in := tensor.Randn[float32](tensor.Shape{5, 4}, rand.New(rand.NewSource(3)), host)
	return fixture{
		host:   host,
		dev:    dev,
		linear: nn.NewLinearSeeded(4, 3, 7, dev),
		input:  tensor.To(in, dev),
	}
}

func (f fixture) threshold() float64 {
	return Threshold(f.linear.Forward(f.input), f.host)
}

func randomMask[M tensor.Float](f fixture, seed int64) *tensor.Tensor[M, *device.Backend] {
	m := tensor.Randn[M](maskShape.Clone(), rand.New(rand.NewSource(seed)), f.host)
	return tensor.To(m, f.dev)
}

// patternMask puts every third element above th and the rest below it.
func patternMask[M tensor.Float](t *testing.T, f fixture, th float64) (*tensor.Tensor[M, *device.Backend], [][]int64) {
	t.Helper()
	data := make([]M, maskShape.NumElements())
	var want [][]int64
	for i := range data {
		if i%3 == 0 {
			data[i] = M(th + 1)
			c := make([]int64, len(maskShape))
			maskShape.Unravel(i, c)
			want = append(want, c)
		} else {
			data[i] = M(th - 1)
		}
	}
	m, err := tensor.FromSlice(data, maskShape.Clone(), f.host)
	require.NoError(t, err)
	return tensor.To(m, f.dev), want
}

func forward[M tensor.Float](f fixture, s Strategy, mask *tensor.Tensor[M, *device.Backend]) *Output[*device.Backend] {
	return New[M](f.linear, f.host, s).Forward(context.Background(), f.input, mask)
}

func TestForward_StrategiesAgree(t *testing.T) {
	f := newFixture(t)

	t.Run("float64", func(t *testing.T) {
		mask := randomMask[float64](f, 11)
		hostCopy := forward(f, HostCopy, mask).Indices()
		resident := forward(f, DeviceResident, mask).Indices()
		assert.True(t, hostCopy.Equal(resident))
		assert.Equal(t, hostCopy.Coordinates(), resident.Coordinates())
	})

	t.Run("float32", func(t *testing.T) {
		mask := randomMask[float32](f, 11)
		hostCopy := forward(f, HostCopy, mask).Indices()
		resident := forward(f, DeviceResident, mask).Indices()
		assert.True(t, hostCopy.Equal(resident))
	})
}

func TestForward_KnownPattern(t *testing.T) {
	f := newFixture(t)
	th := f.threshold()

	mask64, want := patternMask[float64](t, f, th)
	mask32, _ := patternMask[float32](t, f, th)

	outputs := map[string]*Output[*device.Backend]{
		"v1": forward(f, HostCopy, mask64),
		"v2": forward(f, HostCopy, mask32),
		"v3": forward(f, DeviceResident, mask32),
	}
	for name, out := range outputs {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, th, out.Threshold, 1e-9)
			assert.Equal(t, tensor.Accelerator, out.Device())
			assert.Equal(t, len(want), out.Count())

			set := out.Indices()
			assert.Equal(t, 3, set.Rank())
			assert.Equal(t, want, set.Coordinates())
		})
	}
}

func TestForward_EmptyIndexSet(t *testing.T) {
	f := newFixture(t)
	th := f.threshold()

	// Equal to the threshold is not above it.
	host := tensor.Full[float32](maskShape.Clone(), float32(th), f.host)
	mask := tensor.To(host, f.dev)

	for _, s := range []Strategy{HostCopy, DeviceResident} {
		out := forward(f, s, mask)
		assert.Zero(t, out.Count(), s.String())
		set := out.Indices()
		assert.Zero(t, set.Len())
		assert.Equal(t, 3, set.Rank())
	}
}

func TestForward_ProjectionUnaffectedByStrategy(t *testing.T) {
	f := newFixture(t)
	mask := randomMask[float32](f, 5)

	a := forward(f, HostCopy, mask)
	b := forward(f, DeviceResident, mask)
	assert.Equal(t, tensor.Shape{5, 3}, a.Projected.Shape())
	assert.Equal(t, a.Projected.Data(), b.Projected.Data())
	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestForward_FreesDeviceIntermediates(t *testing.T) {
	f := newFixture(t)
	mask := randomMask[float32](f, 4)

	_ = forward(f, DeviceResident, mask)

	// The bool comparison result was resident at the peak and is gone now.
	stats := f.dev.MemoryStats()
	assert.GreaterOrEqual(t, stats.PeakMemoryBytes-stats.TotalAllocatedBytes, uint64(maskShape.NumElements()))
}

func TestForward_Regions(t *testing.T) {
	host := cpu.New()
	p := profiler.New(profiler.Options{ProfileMemory: true})
	dev := profiler.Instrument(p, device.New())

	in := BuildInputs[float64](Scenario{Batch: 4, InFeatures: 5, MaskShape: maskShape, Seed: 2}, host, dev)
	linear := nn.NewLinearSeeded(5, 3, 1, dev)

	profile := func(s Strategy) *profiler.Averages {
		m := New[float64](linear, host, s)
		res, err := profiler.Profile(context.Background(), p, func(ctx context.Context) error {
			m.Forward(ctx, in.Input, in.Mask)
			return nil
		})
		require.NoError(t, err)
		return res.KeyAverages(profiler.GroupBy{})
	}

	t.Run("host copy", func(t *testing.T) {
		avg := profile(HostCopy)
		for _, name := range []string{RegionLinear, RegionMask, "born::matmul", "born::to_device"} {
			row, ok := avg.Find(name)
			require.True(t, ok, name)
			assert.Equal(t, 1, row.Count, name)
		}
		_, ok := avg.Find("born::nonzero")
		assert.False(t, ok)

		// The threshold scalar and the mask both cross to the host.
		down, ok := avg.Find("born::to_host")
		require.True(t, ok)
		assert.Equal(t, 2, down.Count)
		assert.Equal(t, int64(maskShape.NumElements()*8+4), down.HostBytes)
	})

	t.Run("device resident", func(t *testing.T) {
		avg := profile(DeviceResident)
		for _, name := range []string{RegionLinear, RegionMask, "born::gt", "born::nonzero"} {
			_, ok := avg.Find(name)
			assert.True(t, ok, name)
		}
		// Only the float32 threshold is read back.
		down, ok := avg.Find("born::to_host")
		require.True(t, ok)
		assert.Equal(t, 1, down.Count)
		assert.Equal(t, int64(4), down.HostBytes)

		// The comparison scalar is uploaded through the backend.
		up, ok := avg.Find("born::to_device")
		require.True(t, ok)
		assert.Equal(t, int64(8), up.DeviceBytes)

		mask, _ := avg.Find(RegionMask)
		assert.Equal(t, int64(4), mask.HostBytes)
		assert.Positive(t, mask.DeviceBytes)
	})
}

func TestRun_Variants(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Scenario = Scenario{Batch: 4, InFeatures: 5, OutFeatures: 3, MaskShape: maskShape, Seed: 9}

	results := make(map[string]*RunResult)
	for _, v := range Variants() {
		rr, err := Run(context.Background(), cfg, v)
		require.NoError(t, err, v.Name)
		results[v.Name] = rr
	}

	v1, v2, v3 := results[V1.Name], results[V2.Name], results[V3.Name]
	assert.Equal(t, v1.Checksum, v2.Checksum)
	assert.Equal(t, v1.Checksum, v3.Checksum)
	assert.Equal(t, v2.IndexCount, v3.IndexCount)
	assert.InDelta(t, v1.IndexCount, v2.IndexCount, 2)

	// Halving the mask precision halves what crosses to the host.
	down1, ok := v1.Result.KeyAverages(profiler.GroupBy{}).Find("born::to_host")
	require.True(t, ok)
	down2, ok := v2.Result.KeyAverages(profiler.GroupBy{}).Find("born::to_host")
	require.True(t, ok)
	// Both also read back the 4-byte threshold.
	assert.Equal(t, down1.HostBytes-4, 2*(down2.HostBytes-4))

	down3, ok := v3.Result.KeyAverages(profiler.GroupBy{}).Find("born::to_host")
	require.True(t, ok)
	assert.Equal(t, int64(4), down3.HostBytes, "only the threshold leaves the device")

	for _, rr := range results {
		avg := rr.Result.KeyAverages(profiler.GroupBy{})
		for _, name := range []string{RegionLinear, RegionMask} {
			row, ok := avg.Find(name)
			require.True(t, ok)
			assert.Equal(t, 1, row.Count, "warm-up calls are not recorded")
		}
		assert.Positive(t, rr.DeviceMemory.PeakMemoryBytes)
	}
}

func TestRun_InvalidScenario(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Scenario.Batch = 0

	_, err := Run(context.Background(), cfg, V3)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	_, err = Run(context.Background(), DefaultRunConfig(), Variant{Name: "v9", MaskDType: tensor.Int64})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestScenario_Validate(t *testing.T) {
	assert.NoError(t, DefaultScenario().Validate())

	tests := []struct {
		name   string
		modify func(*Scenario)
	}{
		{"batch", func(s *Scenario) { s.Batch = -1 }},
		{"in", func(s *Scenario) { s.InFeatures = 0 }},
		{"out", func(s *Scenario) { s.OutFeatures = 0 }},
		{"no mask", func(s *Scenario) { s.MaskShape = nil }},
		{"zero dim", func(s *Scenario) { s.MaskShape = tensor.Shape{3, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScenario()
			tt.modify(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidScenario)
		})
	}
}

func TestBuildInputs_SameSeedAcrossPrecisions(t *testing.T) {
	host := cpu.New()
	dev := device.New()
	s := Scenario{Batch: 2, InFeatures: 3, OutFeatures: 1, MaskShape: tensor.Shape{4, 5}, Seed: 4}

	a := BuildInputs[float64](s, host, dev)
	b := BuildInputs[float32](s, host, dev)

	assert.Equal(t, tensor.Accelerator, a.Mask.Device())
	assert.Equal(t, a.Input.Data(), b.Input.Data())
	for i, v := range a.Mask.Data() {
		assert.Equal(t, float32(v), b.Mask.Data()[i])
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		in      string
		want    []Variant
		wantErr bool
	}{
		{"all", []Variant{V1, V2, V3}, false},
		{"v1", []Variant{V1}, false},
		{"v2-host-float32, V3", []Variant{V2, V3}, false},
		{"v4", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariants(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownVariant)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
