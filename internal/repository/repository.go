// Package repository orchestrates agent state reconstruction and persistence:
// load is snapshot plus replay, save is a version-checked append with an
// optional snapshot refresh.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/agent"
	"github.com/fleetmind/agentcore/internal/domain/event"
	"github.com/fleetmind/agentcore/internal/platform/encoding"
	apperrors "github.com/fleetmind/agentcore/internal/platform/errors"
	"github.com/fleetmind/agentcore/internal/storage"
)

// DefaultSnapshotFrequency controls how many events accumulate between
// snapshot refreshes when the caller does not configure one.
const DefaultSnapshotFrequency = 100

const defaultPageSize = 200

// ErrAgentIDRequired indicates a missing agent id.
var ErrAgentIDRequired = errors.New("agent id is required")

// Repository loads and saves agent aggregates against the storage boundary.
type Repository struct {
	events    storage.EventStore
	snapshots storage.SnapshotStore

	// SnapshotFrequency is the number of events between snapshot refreshes.
	SnapshotFrequency uint64
	// PageSize bounds how many events one replay read pulls at a time.
	PageSize int
	// Now supplies snapshot timestamps; defaults to time.Now.
	Now func() time.Time
}

// New creates a repository over the given stores.
func New(events storage.EventStore, snapshots storage.SnapshotStore) *Repository {
	return &Repository{
		events:            events,
		snapshots:         snapshots,
		SnapshotFrequency: DefaultSnapshotFrequency,
		PageSize:          defaultPageSize,
	}
}

// Load reconstructs current agent state: latest snapshot (if any) plus a
// replay of every event past it. The second return value reports whether the
// agent exists, i.e. whether any events have ever been appended.
//
// Snapshots are cache only. Any snapshot problem (missing, stale shape,
// undecodable) falls back to a full replay from the start of the stream, so
// the result never depends on snapshot availability.
func (r *Repository) Load(ctx context.Context, agentID string) (agent.State, bool, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return agent.State{}, false, ErrAgentIDRequired
	}

	state := agent.State{}
	fromSeq := uint64(1)
	snapshotted := false

	snap, err := r.snapshots.GetLatestSnapshot(ctx, agentID)
	if err == nil {
		var cached agent.State
		if jsonErr := json.Unmarshal(snap.StateJSON, &cached); jsonErr == nil && cached.Version == snap.Version {
			state = cached
			fromSeq = snap.Version + 1
			snapshotted = true
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("load snapshot for %s: %v (falling back to full replay)", agentID, err)
	}

	applied, err := r.replay(ctx, agentID, &state, fromSeq)
	if err != nil {
		return agent.State{}, false, err
	}

	if !snapshotted && applied == 0 {
		return agent.State{}, false, nil
	}
	return state, true, nil
}

// replay folds events from fromSeq onward into state, page by page, and
// returns how many events were applied.
func (r *Repository) replay(ctx context.Context, agentID string, state *agent.State, fromSeq uint64) (int, error) {
	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	applied := 0
	next := fromSeq
	for {
		envelopes, err := r.events.ReadEvents(ctx, agentID, next, pageSize)
		if err != nil {
			return applied, apperrors.Wrap(apperrors.CodeEventStore, fmt.Sprintf("read events from %d", next), err)
		}
		if len(envelopes) == 0 {
			return applied, nil
		}
		for _, env := range envelopes {
			if env.Seq != next {
				return applied, apperrors.New(apperrors.CodeEventStore, fmt.Sprintf("event sequence gap: expected %d got %d", next, env.Seq))
			}
			*state = agent.Fold(*state, env.Event)
			next++
			applied++
		}
		if len(envelopes) < pageSize {
			return applied, nil
		}
	}
}

// Save appends the produced events under the version the caller observed and
// refreshes the snapshot when the new version crosses the configured
// frequency. Snapshot writes are best-effort: a failure is logged, never
// returned, because losing a snapshot only raises future replay cost.
//
// A *storage.ConflictError passes through unchanged; the caller must reload
// and re-decide. The repository performs no retries.
func (r *Repository) Save(ctx context.Context, newState agent.State, events []event.Event, expectedVersion uint64) ([]event.Envelope, error) {
	if len(events) == 0 {
		return nil, errors.New("at least one event is required")
	}
	agentID := strings.TrimSpace(events[0].AgentID)
	if agentID == "" {
		return nil, ErrAgentIDRequired
	}

	appended, err := r.events.AppendEvents(ctx, agentID, expectedVersion, events)
	if err != nil {
		var conflict *storage.ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeEventStore, fmt.Sprintf("append events for %s", agentID), err)
	}

	newVersion := expectedVersion + uint64(len(appended))
	frequency := r.SnapshotFrequency
	if frequency == 0 {
		frequency = DefaultSnapshotFrequency
	}
	if newVersion/frequency > expectedVersion/frequency {
		if err := r.writeSnapshot(ctx, agentID, newState, newVersion); err != nil {
			log.Printf("snapshot %s at version %d: %v", agentID, newVersion, err)
		}
	}

	return appended, nil
}

func (r *Repository) writeSnapshot(ctx context.Context, agentID string, state agent.State, version uint64) error {
	if state.Version != version {
		return fmt.Errorf("state version %d does not match stream version %d", state.Version, version)
	}
	stateJSON, err := encoding.CanonicalJSON(state)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSerialization, "serialize state", err)
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	if err := r.snapshots.PutSnapshot(ctx, storage.Snapshot{
		AgentID:   agentID,
		Version:   version,
		StateJSON: stateJSON,
		TakenAt:   now().UTC(),
	}); err != nil {
		return apperrors.Wrap(apperrors.CodeSnapshotStore, fmt.Sprintf("put snapshot at version %d", version), err)
	}
	return nil
}
