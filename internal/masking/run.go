package masking

import (
	"context"
	"fmt"
	"time"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/internal/logger"
	"github.com/born-ml/bornprof/internal/nn"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/tensor"
)

// RunConfig drives Run.
type RunConfig struct {
	Scenario Scenario
	Device   device.Config
	Profile  profiler.Options
	// WarmUp is the number of unprofiled Forward calls before the measured one.
	WarmUp int
}

// DefaultRunConfig profiles the default scenario with memory, shapes and
// five-frame stacks after one warm-up call.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Scenario: DefaultScenario(),
		Device:   device.DefaultConfig(),
		Profile: profiler.Options{
			RecordShapes:  true,
			ProfileMemory: true,
			WithStack:     true,
			StackDepth:    profiler.DefaultStackDepth,
		},
		WarmUp: 1,
	}
}

// RunResult is what one profiled variant produced.
type RunResult struct {
	Variant    Variant
	Result     *profiler.Result
	IndexCount int
	Threshold  float64
	Checksum   float64

	// DeviceMemory is the device's memory state after the profiled call.
	DeviceMemory device.MemoryStats
}

// Run builds the scenario for v on a fresh device, warms the module up and
// profiles a single Forward call.
func Run(ctx context.Context, cfg RunConfig, v Variant) (*RunResult, error) {
	if err := cfg.Scenario.Validate(); err != nil {
		return nil, err
	}

	switch v.MaskDType {
	case tensor.Float64:
		return run[float64](ctx, cfg, v)
	case tensor.Float32:
		return run[float32](ctx, cfg, v)
	default:
		return nil, fmt.Errorf("%w: %s has mask dtype %s", ErrUnknownVariant, v.Name, v.MaskDType)
	}
}

func run[M tensor.Float](ctx context.Context, cfg RunConfig, v Variant) (*RunResult, error) {
	log := logger.L().With("variant", v.Name)
	log.Info("run.start",
		"strategy", v.Strategy.String(),
		"mask_shape", cfg.Scenario.MaskShape,
		"mask_dtype", v.MaskDType.String(),
		"batch", cfg.Scenario.Batch,
	)

	p := profiler.New(cfg.Profile)
	dev := device.NewWithConfig(cfg.Device)
	backend := profiler.Instrument(p, dev)
	host := cpu.New()

	in := BuildInputs[M](cfg.Scenario, host, backend)
	linear := nn.NewLinearSeeded(cfg.Scenario.InFeatures, cfg.Scenario.OutFeatures, cfg.Scenario.Seed, backend)
	m := New[M](linear, host, v.Strategy)

	began := time.Now()
	for range cfg.WarmUp {
		m.Forward(context.Background(), in.Input, in.Mask)
	}
	log.Debug("run.warmup", "calls", cfg.WarmUp, "elapsed", time.Since(began))

	var out *Output[*profiler.Backend[*device.Backend]]
	res, err := profiler.Profile(ctx, p, func(ctx context.Context) error {
		out = m.Forward(ctx, in.Input, in.Mask)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", v.Name, err)
	}

	rr := &RunResult{
		Variant:      v,
		Result:       res,
		IndexCount:   out.Count(),
		Threshold:    out.Threshold,
		Checksum:     out.Checksum(),
		DeviceMemory: dev.MemoryStats(),
	}
	log.Info("run.profiled",
		"session", res.ID(),
		"duration", res.Duration(),
		"indices", rr.IndexCount,
		"threshold", rr.Threshold,
	)
	return rr, nil
}
