// Package cli wires the bornprof commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/bornprof/internal/buildinfo"
	"github.com/born-ml/bornprof/internal/config"
	"github.com/born-ml/bornprof/internal/logger"
)

// Execute runs the bornprof root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		printError(cmd.ErrOrStderr(), newTheme(true), err)
		os.Exit(1)
	}
}

// printError writes a command failure in the theme's error style.
func printError(w io.Writer, th theme, err error) {
	_, _ = fmt.Fprintln(w, th.Error.Render("Error: "+err.Error()))
}

type rootFlags struct {
	configPath string
	envFile    string
	debug      bool
	logFile    string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "bornprof",
		Short:         "Profile a masked linear module across index strategies",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file with BORNPROF_* overrides (ignored if missing)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "write JSON logs to this file")

	cmd.AddCommand(runCmd(&flags), compareCmd(&flags), versionCmd())
	return cmd
}

// loadConfig reads the config and applies the root flags on top.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = flags.debug
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = flags.logFile
	}
	return cfg, nil
}

// setupLogging installs the global logger when logging was asked for and
// returns its cleanup. Without a log file or --debug records are dropped.
func setupLogging(cmd *cobra.Command, cfg config.Config) func() {
	if cfg.Log.File == "" && !cfg.Log.Debug {
		return func() {}
	}
	cleanup, err := logger.Setup(logger.Config{
		Path:   cfg.Log.File,
		Debug:  cfg.Log.Debug,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		cmd.PrintErrf("logging disabled: %v\n", err)
		return func() {}
	}
	return func() { _ = cleanup() }
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
