package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/bornprof/internal/masking"
	"github.com/born-ml/bornprof/internal/profiler"
	"github.com/born-ml/bornprof/internal/runstore"
)

func compareCmd(root *rootFlags) *cobra.Command {
	var storePath string
	var color bool

	c := &cobra.Command{
		Use:   "compare",
		Short: "Compare the latest stored run of every variant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("store") {
				cfg.Output.Store = storePath
			}
			if cmd.Flags().Changed("color") {
				cfg.Report.Color = color
			}
			if cfg.Output.Store == "" {
				return errors.New("compare: --store is required")
			}
			defer setupLogging(cmd, cfg)()

			store, err := runstore.Open(cfg.Output.Store)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			variants, err := store.Variants(cmd.Context())
			if err != nil {
				return err
			}
			if len(variants) == 0 {
				return fmt.Errorf("compare: %w in %s", runstore.ErrNotFound, cfg.Output.Store)
			}

			runs := make([]*runstore.Run, 0, len(variants))
			for _, v := range variants {
				run, err := store.Latest(cmd.Context(), v)
				if err != nil {
					return err
				}
				runs = append(runs, run)
			}
			printComparison(cmd.OutOrStdout(), newTheme(cfg.Report.Color), runs)
			return nil
		},
	}

	c.Flags().StringVar(&storePath, "store", "", "SQLite file written by run --store")
	c.Flags().BoolVar(&color, "color", false, "style titles")
	return c
}

func printComparison(w io.Writer, th theme, runs []*runstore.Run) {
	fmt.Fprintln(w, th.Title.Render("Latest runs"))
	fmt.Fprintf(w, "%-18s  %-20s  %12s  %12s  %12s  %12s  %12s\n",
		"Variant", "Started", "Self CPU", "Self Device", "MASK INDICES", "Host Mem", "Indices")

	var base *runstore.Run
	for _, r := range runs {
		mask, _ := r.Row(masking.RegionMask)
		fmt.Fprintf(w, "%-18s  %-20s  %12s  %12s  %12s  %12s  %12d\n",
			r.Variant,
			r.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			profiler.FormatTime(r.SelfCPU()),
			profiler.FormatTime(r.SelfDevice()),
			profiler.FormatTime(time.Duration(mask.CPUTotalNS)),
			profiler.FormatMemory(r.HostBytes),
			r.IndexCount,
		)
		if base == nil {
			base = r
		}
	}

	if base == nil || base.SelfCPUNS == 0 || len(runs) < 2 {
		return
	}
	fmt.Fprintln(w)
	for _, r := range runs[1:] {
		fmt.Fprintln(w, th.Subtitle.Render(fmt.Sprintf("%s vs %s: %.2fx self CPU",
			r.Variant, base.Variant, float64(base.SelfCPUNS)/float64(max(r.SelfCPUNS, 1)))))
	}
}
