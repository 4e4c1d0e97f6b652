// Package main provides the agent lifecycle CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetmind/agentcore/internal/platform/config"
	"github.com/fleetmind/agentcore/internal/tools/agentctl"
)

func main() {
	cfg, err := agentctl.ParseConfig()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agentctl.Run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
