// Package cli implements the rvbench command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvbench/config"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a bench reported a divergence or desync
	ExitCommandError = 2 // bad flags, config or database
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	Seed       uint64
	Cycles     uint64
	Verbose    bool
	DB         string
	Fault      string
}

// NewRootCommand creates the rvbench command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rvbench",
		Short: "Golden-model scoreboards for interrupt controllers and pipeline stages",
		Long: `rvbench drives behavioral device models with seeded random stimulus and
checks every observable output against a reference model.

A failing run prints the cycle, the check and the model state. Re-run it
with the same --seed to reproduce it.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML run configuration")
	pf.Uint64Var(&opts.Seed, "seed", 1, "stimulus seed")
	pf.Uint64Var(&opts.Cycles, "cycles", 1_000_000, "cycle limit (0 runs until failure)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "log every round")
	pf.StringVar(&opts.DB, "db", "", "record runs in this SQLite database")
	pf.StringVar(&opts.Fault, "fault", "none", "inject a device fault")

	for _, name := range BenchNames {
		cmd.AddCommand(newBenchCommand(name, opts))
	}
	cmd.AddCommand(newRegmapCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

// loadConfig reads the configuration and applies the flags set on the
// command line.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, &ExitError{Code: ExitCommandError, Message: "config", Err: err}
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") || opts.ConfigPath == "" {
		cfg.Run.Seed = opts.Seed
	}
	if flags.Changed("cycles") || opts.ConfigPath == "" {
		cfg.Run.Cycles = opts.Cycles
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid config", Err: err}
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
