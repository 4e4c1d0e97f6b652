// Package config loads service configuration from the environment and
// provides the fatal-exit helper shared by the CLI entry points.
//
// Services read AGENTCORE_-prefixed variables through env struct tags;
// flags parsed afterwards override whatever the environment supplied.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from environment variables via its env struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf prints a formatted message to stderr and exits with status 1.
// os.Exit skips deferred functions, so callers flush state first.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
