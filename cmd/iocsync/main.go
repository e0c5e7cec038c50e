// Command iocsync pulls threat-intelligence indicators into a local store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/iocsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/iocsync/internal/connectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectors.RegisterDefaults(connectors.Default())

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
