package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvbench/config"
	"github.com/sarchlab/rvbench/runlog"
)

type historyOptions struct {
	*RootOptions
	Failed bool
	Limit  int
	Rerun  bool
}

func newHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &historyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded with --db, most recent first.

With --failed only diverged and desynchronized runs are listed. Adding
--rerun replays each of them with its recorded seed, fault and
configuration and reports whether it still fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "list failing runs only")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 lists all)")
	cmd.Flags().BoolVar(&opts.Rerun, "rerun", false, "replay the failing runs")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	if opts.DB == "" {
		return &ExitError{Code: ExitCommandError, Message: "history needs --db"}
	}
	if opts.Rerun && !opts.Failed {
		return &ExitError{Code: ExitCommandError, Message: "--rerun needs --failed"}
	}

	l, err := runlog.Open(opts.DB)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "run log", Err: err}
	}
	defer l.Close()

	ctx := cmd.Context()
	var runs []runlog.Run
	if opts.Failed {
		runs, err = l.Failures(ctx)
		if err == nil && opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
	} else {
		runs, err = l.List(ctx, opts.Limit)
	}
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "run log", Err: err}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBENCH\tFAULT\tSEED\tSTATUS\tCYCLES\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.ID, r.Bench, r.Fault, r.Seed, r.Status, r.Cycles, firstLine(r.Error))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !opts.Rerun {
		return nil
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	still := 0
	for _, r := range runs {
		cfg, err := config.Parse([]byte(r.Config))
		if err != nil {
			return &ExitError{Code: ExitCommandError, Message: "recorded config of " + r.ID.String(), Err: err}
		}
		cfg.Run.Seed = r.Seed

		rec, runErr := runBench(ctx, r.Bench, r.Fault, cfg, logger)
		if rec == nil {
			return runErr
		}
		if err := record(ctx, opts.DB, rec); err != nil {
			return err
		}
		printRun(cmd.OutOrStdout(), rec)
		if rec.Status.Failed() {
			still++
		}
	}

	if still > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d runs still fail", still, len(runs))}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
