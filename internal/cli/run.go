package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/born-ml/bornprof/internal/config"
	"github.com/born-ml/bornprof/internal/logger"
	"github.com/born-ml/bornprof/internal/masking"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/profiler/export"
	"github.com/born-ml/bornprof/internal/runstore"
)

type runFlags struct {
	variants   string
	sortBy     string
	rowLimit   int
	stackDepth int
	maskShape  string
	batch      int
	warmUp     int
	bandwidth  float64
	trace      string
	prom       string
	pprofDir   string
	store      string
	color      bool
	shapes     bool
}

func runCmd(root *rootFlags) *cobra.Command {
	var f runFlags

	c := &cobra.Command{
		Use:   "run",
		Short: "Profile one forward call per variant and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, &cfg); err != nil {
				return err
			}
			defer setupLogging(cmd, cfg)()

			return runVariants(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	c.Flags().StringVar(&f.variants, "variant", "", "variants to run: v1, v2, v3, a comma list, or all")
	c.Flags().StringVar(&f.sortBy, "sort", "", "sort key, e.g. self_cpu_time_total")
	c.Flags().IntVar(&f.rowLimit, "row-limit", 0, "rows to print (0 prints all)")
	c.Flags().IntVar(&f.stackDepth, "stack-depth", 0, "frames per source location (0 disables stack grouping)")
	c.Flags().StringVar(&f.maskShape, "mask-shape", "", "mask dimensions, e.g. 500,500,500")
	c.Flags().IntVar(&f.batch, "batch", 0, "input batch size")
	c.Flags().IntVar(&f.warmUp, "warmup", 0, "unprofiled calls before the measured one")
	c.Flags().Float64Var(&f.bandwidth, "bandwidth", 0, "simulated host<->device bandwidth in bytes/s (0 is unthrottled)")
	c.Flags().StringVar(&f.trace, "trace", "", "write a Chrome trace JSON file")
	c.Flags().StringVar(&f.prom, "prom", "", "write a Prometheus textfile")
	c.Flags().StringVar(&f.pprofDir, "pprof-dir", "", "write runtime CPU and heap profiles to this directory")
	c.Flags().StringVar(&f.store, "store", "", "SQLite file recording every run")
	c.Flags().BoolVar(&f.color, "color", false, "style report titles")
	c.Flags().BoolVar(&f.shapes, "group-by-shapes", false, "split rows by input shapes")
	return c
}

// apply copies explicitly set flags over cfg and revalidates it.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	set := cmd.Flags().Changed
	if set("variant") {
		cfg.Variants = f.variants
	}
	if set("sort") {
		cfg.Report.SortBy = f.sortBy
	}
	if set("row-limit") {
		cfg.Report.RowLimit = f.rowLimit
	}
	if set("stack-depth") {
		cfg.Profile.StackDepth = f.stackDepth
		cfg.Profile.WithStack = f.stackDepth > 0
		cfg.Report.GroupByStack = f.stackDepth > 0
	}
	if set("mask-shape") {
		shape, err := config.ParseShape(f.maskShape)
		if err != nil {
			return err
		}
		cfg.Scenario.MaskShape = shape
	}
	if set("batch") {
		cfg.Scenario.Batch = f.batch
	}
	if set("warmup") {
		cfg.Scenario.WarmUp = f.warmUp
	}
	if set("bandwidth") {
		cfg.Device.Bandwidth = f.bandwidth
	}
	if set("trace") {
		cfg.Output.Trace = f.trace
	}
	if set("prom") {
		cfg.Output.Prom = f.prom
	}
	if set("pprof-dir") {
		cfg.Output.PprofDir = f.pprofDir
	}
	if set("store") {
		cfg.Output.Store = f.store
	}
	if set("color") {
		cfg.Report.Color = f.color
	}
	if set("group-by-shapes") {
		cfg.Report.GroupByShapes = f.shapes
		cfg.Profile.RecordShapes = cfg.Profile.RecordShapes || f.shapes
	}
	return cfg.Validate()
}

func runVariants(ctx context.Context, w io.Writer, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	variants, err := cfg.SelectedVariants()
	if err != nil {
		return err
	}
	th := newTheme(cfg.Report.Color)

	var store *runstore.Store
	if cfg.Output.Store != "" {
		store, err = runstore.Open(cfg.Output.Store)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	multi := len(variants) > 1
	results := make([]*masking.RunResult, 0, len(variants))
	for _, v := range variants {
		rr, err := profileVariant(ctx, cfg, v)
		if err != nil {
			return err
		}
		results = append(results, rr)

		if err := printReport(w, th, cfg, rr); err != nil {
			return err
		}
		if err := writeArtifacts(cfg, rr, multi); err != nil {
			return err
		}
		if store != nil {
			run := runstore.FromResult(v.Name, rr.Result, rr.IndexCount, rr.Threshold)
			if err := store.Save(ctx, run); err != nil {
				return err
			}
			logger.L().Info("run.saved", "variant", v.Name, "id", run.ID, "store", cfg.Output.Store)
		}
	}

	if multi {
		printSummary(w, th, results)
	}
	return nil
}

// profileVariant runs one variant, under pprof when configured. Kernel
// panics are turned into errors here so the remaining output stays intact.
func profileVariant(ctx context.Context, cfg config.Config, v masking.Variant) (rr *masking.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", v.Name, r)
		}
	}()

	if cfg.Output.PprofDir == "" {
		return masking.Run(ctx, cfg.RunConfig(), v)
	}

	_, err = export.Capture(ctx, cfg.Output.PprofDir, v.Name, func(ctx context.Context) error {
		var runErr error
		rr, runErr = masking.Run(ctx, cfg.RunConfig(), v)
		return runErr
	})
	return rr, err
}

func printReport(w io.Writer, th theme, cfg config.Config, rr *masking.RunResult) error {
	table, err := rr.Result.KeyAverages(cfg.GroupBy()).Table(cfg.TableOptions())
	if err != nil {
		return err
	}

	fmt.Fprintln(w, th.Title.Render(fmt.Sprintf("%s (%s)", rr.Variant.Name, rr.Variant.Strategy)))
	fmt.Fprintln(w, th.Subtitle.Render(fmt.Sprintf(
		"session %s  mask %v %s  threshold %.6f  indices %d",
		rr.Result.ID(), cfg.Scenario.MaskShape, rr.Variant.MaskDType, rr.Threshold, rr.IndexCount,
	)))
	fmt.Fprint(w, table)
	fmt.Fprintln(w)
	return nil
}

func printSummary(w io.Writer, th theme, results []*masking.RunResult) {
	fmt.Fprintln(w, th.Title.Render("Summary"))
	fmt.Fprintf(w, "%-18s  %12s  %12s  %12s  %12s\n", "Variant", "Self CPU", "Self Device", "MASK INDICES", "Indices")
	for _, rr := range results {
		mask, _ := rr.Result.Region(masking.RegionMask)
		fmt.Fprintf(w, "%-18s  %12s  %12s  %12s  %12d\n",
			rr.Variant.Name,
			profiler.FormatTime(rr.Result.SelfCPUTotal()),
			profiler.FormatTime(rr.Result.SelfDeviceTotal()),
			profiler.FormatTime(mask.CPUTime),
			rr.IndexCount,
		)
	}
}

func writeArtifacts(cfg config.Config, rr *masking.RunResult, multi bool) error {
	if cfg.Output.Trace != "" {
		path := variantPath(cfg.Output.Trace, rr.Variant.Name, multi)
		if err := writeTrace(path, rr.Result); err != nil {
			return err
		}
		logger.L().Info("trace.written", "variant", rr.Variant.Name, "path", path)
	}
	if cfg.Output.Prom != "" {
		path := variantPath(cfg.Output.Prom, rr.Variant.Name, multi)
		labels := prometheus.Labels{"variant": rr.Variant.Name}
		if err := export.PromTextfile(path, rr.Result, labels); err != nil {
			return err
		}
		logger.L().Info("prom.written", "variant", rr.Variant.Name, "path", path)
	}
	return nil
}

func writeTrace(path string, res *profiler.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create trace dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	if err := export.ChromeTrace(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// variantPath inserts the variant name before the extension when several
// variants write to the same configured path.
func variantPath(path, variant string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + variant + ext
}
