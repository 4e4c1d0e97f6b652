// Package agentd parses daemon flags and runs the publication relay.
package agentd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/fleetmind/agentcore/internal/platform/cmd"
	"github.com/fleetmind/agentcore/internal/publish"
	publishredis "github.com/fleetmind/agentcore/internal/publish/redis"
	"github.com/fleetmind/agentcore/internal/storage/sqlite"
)

// Config holds agentd configuration.
type Config struct {
	DBPath           string        `env:"AGENTCORE_DB_PATH" envDefault:"agentcore.db"`
	RedisURL         string        `env:"AGENTCORE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	EventStream      string        `env:"AGENTCORE_EVENT_STREAM"`
	RelayInterval    time.Duration `env:"AGENTCORE_RELAY_INTERVAL" envDefault:"2s"`
	RelayConcurrency int           `env:"AGENTCORE_RELAY_CONCURRENCY" envDefault:"4"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite journal database")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis broker URL")
	fs.StringVar(&cfg.EventStream, "stream", cfg.EventStream, "Redis stream key for published events")
	fs.DurationVar(&cfg.RelayInterval, "interval", cfg.RelayInterval, "Backlog sweep interval")
	fs.IntVar(&cfg.RelayConcurrency, "concurrency", cfg.RelayConcurrency, "Parallel agent drains per sweep")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the journal and relays unpublished events until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAgentd, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", cfg.DBPath, err)
		}
		defer store.Close()

		publisher, err := publishredis.New(cfg.RedisURL, cfg.EventStream)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer publisher.Close()

		if err := publisher.Ping(ctx); err != nil {
			return fmt.Errorf("ping broker: %w", err)
		}

		relay := &publish.Relay{
			Events:      store,
			Cursors:     store,
			Publisher:   publisher,
			Interval:    cfg.RelayInterval,
			Concurrency: cfg.RelayConcurrency,
		}
		log.Printf("relaying %s to %s every %s", cfg.DBPath, cfg.RedisURL, relay.Interval)
		err = relay.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
