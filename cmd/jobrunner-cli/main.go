// Package main provides the entry point for jobrunner-cli.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/yndnr/jobrunner-go/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		command.PrintError("%v", err)
		stop()
		os.Exit(1)
	}
}
