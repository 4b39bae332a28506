// Command lineage queries file provenance recorded in a git repository.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/lineage/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "lineage: %s\n", msg)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
