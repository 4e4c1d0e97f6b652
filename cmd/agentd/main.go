// Package main runs the agentcore publication relay daemon.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	agentdcmd "github.com/fleetmind/agentcore/internal/cmd/agentd"
)

func main() {
	cfg, err := agentdcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[AGENTD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agentdcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to relay: %v", err)
	}
}
