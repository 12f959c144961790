// Package main provides the entry point for rvbench.
// rvbench verifies interrupt controllers and RV32I pipeline stages against
// golden reference models, clocked on Akita.
//
// The same commands are available from: go run ./cmd/rvbench
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sarchlab/rvbench/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
