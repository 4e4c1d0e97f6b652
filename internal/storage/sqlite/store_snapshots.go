package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fleetmind/agentcore/internal/storage"
)

// PutSnapshot upserts the latest snapshot for an agent. Older snapshot rows
// are overwritten; the journal remains the only authoritative record.
func (s *Store) PutSnapshot(ctx context.Context, snap storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap.AgentID = strings.TrimSpace(snap.AgentID)
	if snap.AgentID == "" {
		return fmt.Errorf("agent id is required")
	}
	if snap.Version == 0 {
		return fmt.Errorf("snapshot version must be positive")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO snapshots (agent_id, version, state, taken_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (agent_id) DO UPDATE SET
		     version = excluded.version,
		     state = excluded.state,
		     taken_at = excluded.taken_at`,
		snap.AgentID,
		int64(snap.Version),
		string(snap.StateJSON),
		toMillis(snap.TakenAt),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot retrieves the most recent snapshot for an agent.
// Returns storage.ErrNotFound if no snapshot exists.
func (s *Store) GetLatestSnapshot(ctx context.Context, agentID string) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return storage.Snapshot{}, fmt.Errorf("agent id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT agent_id, version, state, taken_at FROM snapshots WHERE agent_id = ?`,
		agentID,
	)
	var snap storage.Snapshot
	var version, takenAtMillis int64
	var state string
	err := row.Scan(&snap.AgentID, &version, &state, &takenAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Version = uint64(version)
	snap.StateJSON = []byte(state)
	snap.TakenAt = fromMillis(takenAtMillis)
	return snap, nil
}
