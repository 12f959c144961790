// Command rvbench runs the golden-model scoreboards.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sarchlab/rvbench/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
