// Command totalsize adds up the size, duration and popularity counters of
// every media in a playlist or of a single media URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/famomatic/totalsize/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
