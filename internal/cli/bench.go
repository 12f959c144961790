package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/clint"
	"github.com/sarchlab/rvbench/config"
	hwclint "github.com/sarchlab/rvbench/hw/clint"
	hwplic "github.com/sarchlab/rvbench/hw/plic"
	hwrvee "github.com/sarchlab/rvbench/hw/rvee"
	"github.com/sarchlab/rvbench/plic"
	"github.com/sarchlab/rvbench/runlog"
	"github.com/sarchlab/rvbench/rvee"
)

// BenchNames lists the bench subcommands.
var BenchNames = []string{"plic", "clint", "fetch", "decode", "exec", "mem"}

var benchShort = map[string]string{
	"plic":   "Verify the priority interrupt arbiter",
	"clint":  "Verify the timer/compare block",
	"fetch":  "Verify the fetch stage",
	"decode": "Verify the decode stage",
	"exec":   "Verify the execute stage",
	"mem":    "Verify the memory and writeback stage",
}

type scoreboard interface {
	bench.Task
	Stats() bench.Stats
}

// harness is a device under test and the scoreboard checking it.
type harness struct {
	device bench.Device
	board  scoreboard
}

func build(name string, cfg *config.Config, fault string, logger *slog.Logger) (harness, error) {
	seed := cfg.Run.Seed

	switch name {
	case "plic":
		f, err := hwplic.ParseFault(fault)
		if err != nil {
			return harness{}, err
		}
		dev := hwplic.New(cfg.PLIC, f)
		return harness{dev, plic.NewBench(cfg.PLIC, dev, seed, plic.WithLogger(logger))}, nil

	case "clint":
		f, err := hwclint.ParseFault(fault)
		if err != nil {
			return harness{}, err
		}
		dev := hwclint.New(cfg.CLINT, f)
		return harness{dev, clint.NewBench(cfg.CLINT, dev, seed, clint.WithLogger(logger))}, nil
	}

	f, err := hwrvee.ParseFault(fault)
	if err != nil {
		return harness{}, err
	}
	if f != hwrvee.FaultNone && !strings.HasPrefix(fault, name+"-") {
		return harness{}, fmt.Errorf("fault %q does not apply to the %s stage", fault, name)
	}

	p := cfg.Pipeline
	opt := rvee.WithLogger(logger)
	switch name {
	case "fetch":
		dev := hwrvee.NewFetch(p.ResetVector, f)
		return harness{dev, rvee.NewFetchBench(p, dev, seed, opt)}, nil
	case "decode":
		dev := hwrvee.NewDecode(f)
		return harness{dev, rvee.NewDecodeBench(p, dev, seed, opt)}, nil
	case "exec":
		dev := hwrvee.NewExec(f)
		return harness{dev, rvee.NewExecBench(p, dev, seed, opt)}, nil
	case "mem":
		dev := hwrvee.NewMem(f)
		return harness{dev, rvee.NewMemBench(p, dev, seed, opt)}, nil
	}
	return harness{}, fmt.Errorf("unknown bench %q", name)
}

func newBenchCommand(name string, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: benchShort[name],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
			rec, err := runBench(cmd.Context(), name, opts.Fault, cfg, logger)
			if rec == nil {
				return err
			}
			if dbErr := record(cmd.Context(), opts.DB, rec); dbErr != nil {
				return dbErr
			}
			printRun(cmd.OutOrStdout(), rec)
			return err
		},
	}
}

// runBench clocks one bench and returns its record. The record is nil
// when the bench could not be built.
func runBench(ctx context.Context, name, fault string, cfg *config.Config, logger *slog.Logger) (*runlog.Run, error) {
	h, err := build(name, cfg, fault, logger)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: name, Err: err}
	}

	rec := runlog.NewRun(name, fault, cfg.Run.Seed)
	if data, err := cfg.Encode(); err == nil {
		rec.Config = string(data)
	}

	clock := bench.NewClock(h.device,
		bench.WithFreq(sim.Freq(cfg.Run.FreqMHz)*sim.MHz),
		bench.WithLogger(logger.With("run", rec.ID.String())),
	)
	clock.Add(h.board)

	runErr := clock.Run(ctx, cfg.Run.Cycles)
	rec.Finish(clock.Cycle(), h.board.Stats(), runErr)
	if runErr == nil || rec.Status == runlog.StatusCanceled {
		return rec, nil
	}

	logger.Error("bench failed", "bench", name, "seed", cfg.Run.Seed, "status", rec.Status)
	return rec, &ExitError{Code: ExitFailure, Message: name + " failed", Err: runErr}
}

func record(ctx context.Context, path string, rec *runlog.Run) error {
	if path == "" {
		return nil
	}
	l, err := runlog.Open(path)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "run log", Err: err}
	}
	defer l.Close()

	// The run may have been canceled; the record still goes in.
	if err := l.Record(context.WithoutCancel(ctx), rec); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "run log", Err: err}
	}
	return nil
}

func printRun(w io.Writer, r *runlog.Run) {
	fmt.Fprintf(w, "%s %s seed=%d fault=%s cycles=%d rounds=%d checks=%d\n",
		r.Status, r.Bench, r.Seed, r.Fault, r.Cycles, r.Rounds, r.Checks)
}
