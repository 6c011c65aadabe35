package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbeaudouin05/fintrack-client/api/bootstrap"
	"github.com/tbeaudouin05/fintrack-client/api/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCmd(version).ExecuteContext(ctx)
	if a := bootstrap.GetApp(); a != nil {
		_ = a.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
