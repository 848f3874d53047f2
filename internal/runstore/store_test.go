package runstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/tensor"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:")
	require.NoError(t, err, "failed to open store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedRun(t *testing.T, s *Store, id, variant string, startedAt time.Time) *Run {
	t.Helper()
	run := &Run{
		ID:        id,
		Variant:   variant,
		StartedAt: startedAt,
		SelfCPUNS: int64(time.Millisecond),
		Rows: []RunRow{
			{Position: 0, Name: "LINEAR PASS", Kind: "region", Calls: 1},
			{Position: 1, Name: "MASK INDICES", Kind: "region", Calls: 1},
		},
	}
	require.NoError(t, s.Save(context.Background(), run))
	return run
}

func TestStore_SaveAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedRun(t, s, "run-1", "v1-host-float64", at)

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "v1-host-float64", got.Variant)
	assert.True(t, got.StartedAt.Equal(at))
	assert.Equal(t, time.Millisecond, got.SelfCPU())
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "LINEAR PASS", got.Rows[0].Name)
	assert.Equal(t, "run-1", got.Rows[1].RunID)

	row, ok := got.Row("MASK INDICES")
	require.True(t, ok)
	assert.Equal(t, int64(1), row.Calls)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveDuplicateID(t *testing.T) {
	s := setupStore(t)
	seedRun(t, s, "dup", "v3-device", time.Now())

	err := s.Save(context.Background(), &Run{ID: "dup", Variant: "v3-device", StartedAt: time.Now()})
	assert.Error(t, err)
}

func TestStore_LatestAndList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	seedRun(t, s, "a", "v3-device", base)
	seedRun(t, s, "b", "v3-device", base.Add(time.Hour))
	seedRun(t, s, "c", "v1-host-float64", base.Add(2*time.Hour))

	latest, err := s.Latest(ctx, "v3-device")
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)
	assert.Len(t, latest.Rows, 2)

	_, err = s.Latest(ctx, "v2-host-float32")
	assert.ErrorIs(t, err, ErrNotFound)

	runs, err := s.ListByVariant(ctx, "v3-device", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Empty(t, runs[0].Rows)

	runs, err = s.ListByVariant(ctx, "v3-device", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	variants, err := s.Variants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1-host-float64", "v3-device"}, variants)
}

func TestFromResult(t *testing.T) {
	p := profiler.New(profiler.Options{ProfileMemory: true})
	b := profiler.Instrument(p, cpu.New())
	x := tensor.Ones[float32](tensor.Shape{2, 2}, b)

	res, err := profiler.Profile(context.Background(), p, func(ctx context.Context) error {
		r := profiler.StartRegion(ctx, "LINEAR PASS")
		_ = x.MatMul(x)
		r.End()
		return nil
	})
	require.NoError(t, err)

	run := FromResult("v2-host-float32", res, 42, 0.5)
	assert.Equal(t, res.ID(), run.ID)
	assert.Equal(t, int64(42), run.IndexCount)
	assert.Equal(t, int64(16), run.HostBytes)
	require.Len(t, run.Rows, 2)
	assert.Equal(t, "LINEAR PASS", run.Rows[0].Name)
	assert.Equal(t, "born::matmul", run.Rows[1].Name)
	assert.Equal(t, "op", run.Rows[1].Kind)

	s := setupStore(t)
	require.NoError(t, s.Save(context.Background(), run))
	got, err := s.Latest(context.Background(), "v2-host-float32")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Len(t, got.Rows, 2)
}
