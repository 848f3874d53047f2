// Package config loads bornprof settings.
//
// Sources apply in increasing precedence: built-in defaults, a YAML file,
// a .env file, and BORNPROF_* environment variables. Command-line flags are
// applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/internal/masking"
	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/tensor"
)

// ErrInvalid wraps every validation and parse failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full set of run settings.
type Config struct {
	Variants string   `yaml:"variants"`
	Scenario Scenario `yaml:"scenario"`
	Profile  Profile  `yaml:"profile"`
	Report   Report   `yaml:"report"`
	Device   Device   `yaml:"device"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`
}

// Scenario sizes the inputs.
type Scenario struct {
	Batch       int   `yaml:"batch"`
	InFeatures  int   `yaml:"in_features"`
	OutFeatures int   `yaml:"out_features"`
	MaskShape   []int `yaml:"mask_shape"`
	Seed        int64 `yaml:"seed"`
	WarmUp      int   `yaml:"warmup"`
}

// Profile selects what the profiler records.
type Profile struct {
	RecordShapes  bool `yaml:"record_shapes"`
	ProfileMemory bool `yaml:"profile_memory"`
	WithStack     bool `yaml:"with_stack"`
	StackDepth    int  `yaml:"stack_depth"`
}

// Report shapes the printed table.
type Report struct {
	SortBy        string `yaml:"sort_by"`
	RowLimit      int    `yaml:"row_limit"`
	GroupByStack  bool   `yaml:"group_by_stack"`
	GroupByShapes bool   `yaml:"group_by_shapes"`
	MaxNameWidth  int    `yaml:"max_name_width"`
	Color         bool   `yaml:"color"`
}

// Device configures the simulated accelerator.
type Device struct {
	// Bandwidth of host<->device copies in bytes per second. Zero is unthrottled.
	Bandwidth float64 `yaml:"bandwidth"`
	// Workers bounds kernel fan-out. Zero uses every CPU.
	Workers int `yaml:"workers"`
}

// Output names optional artifacts. Empty paths are skipped.
type Output struct {
	Trace    string `yaml:"trace"`
	Prom     string `yaml:"prom"`
	PprofDir string `yaml:"pprof_dir"`
	Store    string `yaml:"store"`
}

// Log configures internal/logger.
type Log struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the settings of the reference scenario: batch 128, 500
// inputs, 10 outputs, a 500x500x500 mask, every variant, and the five
// slowest rows by self CPU time grouped by five-frame stacks.
func Default() Config {
	s := masking.DefaultScenario()
	return Config{
		Variants: "all",
		Scenario: Scenario{
			Batch:       s.Batch,
			InFeatures:  s.InFeatures,
			OutFeatures: s.OutFeatures,
			MaskShape:   append([]int{}, s.MaskShape...),
			Seed:        s.Seed,
			WarmUp:      1,
		},
		Profile: Profile{
			RecordShapes:  true,
			ProfileMemory: true,
			WithStack:     true,
			StackDepth:    profiler.DefaultStackDepth,
		},
		Report: Report{
			SortBy:       "self_cpu_time_total",
			RowLimit:     5,
			GroupByStack: true,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), the dotenv file at envFile (skipped when empty or missing) and
// the process environment, then validates it.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = vals
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	str("BORNPROF_VARIANTS", &c.Variants)
	integer("BORNPROF_BATCH", &c.Scenario.Batch)
	integer("BORNPROF_IN_FEATURES", &c.Scenario.InFeatures)
	integer("BORNPROF_OUT_FEATURES", &c.Scenario.OutFeatures)
	integer("BORNPROF_WARMUP", &c.Scenario.WarmUp)
	if v, ok := lookup("BORNPROF_SEED"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("BORNPROF_SEED=%q: not an integer", v))
		} else {
			c.Scenario.Seed = n
		}
	}
	if v, ok := lookup("BORNPROF_MASK_SHAPE"); ok {
		shape, err := ParseShape(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.Scenario.MaskShape = shape
		}
	}

	boolean("BORNPROF_RECORD_SHAPES", &c.Profile.RecordShapes)
	boolean("BORNPROF_PROFILE_MEMORY", &c.Profile.ProfileMemory)
	boolean("BORNPROF_WITH_STACK", &c.Profile.WithStack)
	integer("BORNPROF_STACK_DEPTH", &c.Profile.StackDepth)

	str("BORNPROF_SORT", &c.Report.SortBy)
	integer("BORNPROF_ROW_LIMIT", &c.Report.RowLimit)
	boolean("BORNPROF_GROUP_BY_STACK", &c.Report.GroupByStack)
	boolean("BORNPROF_GROUP_BY_SHAPES", &c.Report.GroupByShapes)
	boolean("BORNPROF_COLOR", &c.Report.Color)

	if v, ok := lookup("BORNPROF_BANDWIDTH"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("BORNPROF_BANDWIDTH=%q: not a number", v))
		} else {
			c.Device.Bandwidth = f
		}
	}
	integer("BORNPROF_WORKERS", &c.Device.Workers)

	str("BORNPROF_TRACE", &c.Output.Trace)
	str("BORNPROF_PROM", &c.Output.Prom)
	str("BORNPROF_PPROF_DIR", &c.Output.PprofDir)
	str("BORNPROF_STORE", &c.Output.Store)

	str("BORNPROF_LOG_FILE", &c.Log.File)
	boolean("BORNPROF_DEBUG", &c.Log.Debug)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ParseShape parses a comma separated list of positive dimensions such as
// "500,500,500".
func ParseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		d, err := strconv.Atoi(p)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: mask shape %q: dimension %q is not a positive integer", ErrInvalid, s, p)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// Validate checks sizes, the variant list and the sort key.
func (c Config) Validate() error {
	if err := c.MaskingScenario().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Scenario.WarmUp < 0 {
		return fmt.Errorf("%w: warmup must not be negative, got %d", ErrInvalid, c.Scenario.WarmUp)
	}
	if _, err := masking.ParseVariants(c.Variants); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Report.SortBy != "" && !profiler.ValidSortKey(c.Report.SortBy) {
		return fmt.Errorf("%w: unknown sort key %q (valid: %s)",
			ErrInvalid, c.Report.SortBy, strings.Join(profiler.SortKeys(), ", "))
	}
	if c.Profile.StackDepth < 0 {
		return fmt.Errorf("%w: stack depth must not be negative, got %d", ErrInvalid, c.Profile.StackDepth)
	}
	if c.Device.Bandwidth < 0 {
		return fmt.Errorf("%w: bandwidth must not be negative, got %g", ErrInvalid, c.Device.Bandwidth)
	}
	return nil
}

// SelectedVariants resolves the variant list.
func (c Config) SelectedVariants() ([]masking.Variant, error) {
	return masking.ParseVariants(c.Variants)
}

// MaskingScenario converts the scenario section.
func (c Config) MaskingScenario() masking.Scenario {
	return masking.Scenario{
		Batch:       c.Scenario.Batch,
		InFeatures:  c.Scenario.InFeatures,
		OutFeatures: c.Scenario.OutFeatures,
		MaskShape:   tensor.Shape(append([]int{}, c.Scenario.MaskShape...)),
		Seed:        c.Scenario.Seed,
	}
}

// RunConfig converts the settings masking.Run consumes.
func (c Config) RunConfig() masking.RunConfig {
	par := parallel.DefaultConfig()
	if c.Device.Workers > 0 {
		par.NumWorkers = c.Device.Workers
		par.Enabled = c.Device.Workers > 1
	}
	return masking.RunConfig{
		Scenario: c.MaskingScenario(),
		Device: device.Config{
			Bandwidth: c.Device.Bandwidth,
			Parallel:  par,
		},
		Profile: profiler.Options{
			RecordShapes:  c.Profile.RecordShapes,
			ProfileMemory: c.Profile.ProfileMemory,
			WithStack:     c.Profile.WithStack,
			StackDepth:    c.Profile.StackDepth,
		},
		WarmUp: c.Scenario.WarmUp,
	}
}

// GroupBy returns the aggregation key for the report.
func (c Config) GroupBy() profiler.GroupBy {
	by := profiler.GroupBy{InputShapes: c.Report.GroupByShapes && c.Profile.RecordShapes}
	if c.Report.GroupByStack && c.Profile.WithStack {
		by.StackDepth = c.Profile.StackDepth
		if by.StackDepth == 0 {
			by.StackDepth = profiler.DefaultStackDepth
		}
	}
	return by
}

// TableOptions returns the table rendering options.
func (c Config) TableOptions() profiler.TableOptions {
	return profiler.TableOptions{
		SortBy:       c.Report.SortBy,
		RowLimit:     c.Report.RowLimit,
		MaxNameWidth: c.Report.MaxNameWidth,
	}
}
