package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fleetmind/agentcore/internal/storage"
)

const (
	// DefaultInterval is the sweep period between backlog scans.
	DefaultInterval = 2 * time.Second
	// DefaultConcurrency bounds the number of agents drained in parallel.
	DefaultConcurrency = 4
	// defaultBatchSize limits events read per journal page.
	defaultBatchSize = 200
)

// Relay drains the publish backlog and forwards events to a Publisher.
//
// Each agent's stream is drained by a single goroutine so per-agent
// ordering is preserved. Distinct agents drain concurrently up to the
// configured limit.
type Relay struct {
	Events    storage.EventStore
	Cursors   storage.PublishCursorStore
	Publisher Publisher

	// Interval between sweeps; DefaultInterval when zero.
	Interval time.Duration
	// Concurrency bounds parallel agent drains; DefaultConcurrency when zero.
	Concurrency int
	// BatchSize limits events per read page; defaultBatchSize when zero.
	BatchSize int
}

// Run sweeps the backlog until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("relay sweep: %v", err)
			}
		}
	}
}

// Sweep drains every agent with unpublished events once.
func (r *Relay) Sweep(ctx context.Context) error {
	if r.Events == nil || r.Cursors == nil || r.Publisher == nil {
		return errors.New("relay requires events, cursors, and publisher")
	}

	backlog, err := r.Cursors.ListPublishBacklog(ctx, 0)
	if err != nil {
		return fmt.Errorf("list publish backlog: %w", err)
	}
	if len(backlog) == 0 {
		return nil
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, cursor := range backlog {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case semaphore <- struct{}{}:
		}
		wg.Add(1)
		go func(cursor storage.PublishCursor) {
			defer wg.Done()
			defer func() { <-semaphore }()
			if err := r.drainAgent(ctx, cursor); err != nil {
				log.Printf("relay drain agent %s: %v", cursor.AgentID, err)
			}
		}(cursor)
	}
	wg.Wait()
	return nil
}

// drainAgent publishes events past the cursor in sequence order,
// advancing the cursor after each delivery.
func (r *Relay) drainAgent(ctx context.Context, cursor storage.PublishCursor) error {
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	next := cursor.PublishedSeq + 1
	for {
		envelopes, err := r.Events.ReadEvents(ctx, cursor.AgentID, next, batchSize)
		if err != nil {
			return fmt.Errorf("read events from seq %d: %w", next, err)
		}
		if len(envelopes) == 0 {
			return nil
		}
		for _, env := range envelopes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.Publisher.Publish(ctx, env); err != nil {
				return fmt.Errorf("publish seq %d: %w", env.Seq, err)
			}
			saved := storage.PublishCursor{
				AgentID:      cursor.AgentID,
				PublishedSeq: env.Seq,
				UpdatedAt:    time.Now().UTC(),
			}
			if err := r.Cursors.SavePublishCursor(ctx, saved); err != nil {
				return fmt.Errorf("save publish cursor at seq %d: %w", env.Seq, err)
			}
			next = env.Seq + 1
		}
		if len(envelopes) < batchSize {
			return nil
		}
	}
}
