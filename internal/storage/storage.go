// Package storage defines the persistence boundary for the agent journal:
// the append-only event stream, snapshot checkpoints, and publish cursors.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
	apperrors "github.com/fleetmind/agentcore/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such agent" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ConflictError reports a failed optimistic-concurrency check on append.
// The caller's observed version is stale; reload and retry.
type ConflictError struct {
	AgentID  string
	Expected uint64
	Actual   uint64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict for agent %s: expected version %d, actual %d", e.AgentID, e.Expected, e.Actual)
}

// Snapshot is a materialized agent state checkpoint derived from the event
// journal. Snapshots are accelerators for replay, not the source of authority.
type Snapshot struct {
	AgentID   string
	Version   uint64
	StateJSON []byte
	TakenAt   time.Time
}

// PublishCursor tracks how far the relay has published an agent's stream.
type PublishCursor struct {
	AgentID      string
	PublishedSeq uint64
	UpdatedAt    time.Time
}

// EventStore owns the event stream boundary that drives replay and command
// rehydration; this is the source of truth for state reconstruction.
type EventStore interface {
	// AppendEvents atomically appends events at consecutive sequence numbers
	// starting at expectedVersion+1. The version check and the write happen
	// as one indivisible operation per agent id: either every event is
	// recorded or none are. Returns *ConflictError when expectedVersion does
	// not match the current stream length.
	AppendEvents(ctx context.Context, agentID string, expectedVersion uint64, events []event.Event) ([]event.Envelope, error)
	// ReadEvents returns envelopes ordered by sequence ascending, starting at
	// fromSeq inclusive. A limit of 0 means no limit.
	ReadEvents(ctx context.Context, agentID string, fromSeq uint64, limit int) ([]event.Envelope, error)
	// LatestVersion returns the latest event sequence number for an agent.
	// Returns 0 if no events exist.
	LatestVersion(ctx context.Context, agentID string) (uint64, error)
}

// SnapshotStore persists replay checkpoints used to jump event replay work.
// Each agent keeps at most one snapshot, the latest.
type SnapshotStore interface {
	// PutSnapshot stores a snapshot, replacing any older one for the agent.
	PutSnapshot(ctx context.Context, snap Snapshot) error
	// GetLatestSnapshot retrieves the most recent snapshot for an agent.
	// Returns ErrNotFound if no snapshot exists.
	GetLatestSnapshot(ctx context.Context, agentID string) (Snapshot, error)
}

// PublishCursorStore persists per-agent publish progress so that at-least-once
// delivery can resume after a crash between append and publish.
type PublishCursorStore interface {
	// GetPublishCursor returns the cursor for an agent.
	// Returns ErrNotFound if the agent has never been published.
	GetPublishCursor(ctx context.Context, agentID string) (PublishCursor, error)
	// SavePublishCursor upserts the cursor for an agent.
	SavePublishCursor(ctx context.Context, cursor PublishCursor) error
	// ListPublishBacklog returns cursors for agents whose latest event
	// sequence is ahead of their published sequence, including agents with
	// no cursor row yet (PublishedSeq 0).
	ListPublishBacklog(ctx context.Context, limit int) ([]PublishCursor, error)
}

// Store is a composite interface for all persistence concerns used across
// the write path, replay, and publication.
type Store interface {
	EventStore
	SnapshotStore
	PublishCursorStore
	Close() error
}
