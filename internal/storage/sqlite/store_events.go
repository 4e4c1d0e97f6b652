package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
	"github.com/fleetmind/agentcore/internal/storage"
)

// AppendEvents atomically appends events at consecutive sequence numbers
// starting at expectedVersion+1. The version check and the inserts share one
// transaction, so concurrent writers for the same agent serialize on the
// database and the loser observes a ConflictError.
func (s *Store) AppendEvents(ctx context.Context, agentID string, expectedVersion uint64, events []event.Event) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("at least one event is required")
	}

	normalized := make([]event.Event, len(events))
	for i, evt := range events {
		n, err := event.NormalizeForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("normalize event %d: %w", i, err)
		}
		if n.AgentID != agentID {
			return nil, fmt.Errorf("event %d targets agent %s, not %s", i, n.AgentID, agentID)
		}
		normalized[i] = n
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var actual uint64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE agent_id = ?`,
		agentID,
	)
	if err := row.Scan(&actual); err != nil {
		return nil, fmt.Errorf("read stream version: %w", err)
	}
	if actual != expectedVersion {
		return nil, &storage.ConflictError{AgentID: agentID, Expected: expectedVersion, Actual: actual}
	}

	recordedAt := time.Now().UTC()
	appended := make([]event.Envelope, len(normalized))
	for i, evt := range normalized {
		seq := expectedVersion + uint64(i) + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (agent_id, seq, type, timestamp, actor_id, correlation_id, causation_id, payload, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.AgentID,
			int64(seq),
			string(evt.Type),
			toMillis(evt.Timestamp),
			evt.ActorID,
			evt.CorrelationID,
			evt.CausationID,
			string(evt.PayloadJSON),
			toMillis(recordedAt),
		); err != nil {
			// Backstop for a writer that slipped past the version check
			// on a connection that was not holding the write lock. The
			// (agent_id, seq) primary key still guarantees exactly one
			// winner per version.
			if isConstraintError(err) {
				_ = tx.Rollback()
				latest, readErr := s.LatestVersion(ctx, agentID)
				if readErr != nil {
					return nil, fmt.Errorf("insert event seq %d: %w", seq, err)
				}
				return nil, &storage.ConflictError{AgentID: agentID, Expected: expectedVersion, Actual: latest}
			}
			return nil, fmt.Errorf("insert event seq %d: %w", seq, err)
		}
		appended[i] = event.Envelope{
			Event:      evt,
			Seq:        seq,
			RecordedAt: recordedAt,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return appended, nil
}

// isConstraintError reports whether err is a SQLite constraint violation,
// such as a duplicate (agent_id, seq) primary key.
func isConstraintError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "constraint failed") || strings.Contains(value, "constraint violation")
}

// ReadEvents returns envelopes ordered by sequence ascending from fromSeq
// inclusive. A limit of 0 means no limit.
func (s *Store) ReadEvents(ctx context.Context, agentID string, fromSeq uint64, limit int) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	query := `SELECT agent_id, seq, type, timestamp, actor_id, correlation_id, causation_id, payload, recorded_at
		 FROM events WHERE agent_id = ? AND seq >= ? ORDER BY seq ASC`
	args := []any{agentID, int64(fromSeq)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var envelopes []event.Envelope
	for rows.Next() {
		var env event.Envelope
		var seq, timestampMillis, recordedAtMillis int64
		var eventType, payload string
		if err := rows.Scan(
			&env.AgentID,
			&seq,
			&eventType,
			&timestampMillis,
			&env.ActorID,
			&env.CorrelationID,
			&env.CausationID,
			&payload,
			&recordedAtMillis,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		env.Seq = uint64(seq)
		env.Type = event.Type(eventType)
		env.Timestamp = fromMillis(timestampMillis)
		env.PayloadJSON = []byte(payload)
		env.RecordedAt = fromMillis(recordedAtMillis)
		envelopes = append(envelopes, env)
	}
	return envelopes, rows.Err()
}

// LatestVersion returns the latest event sequence number for an agent.
// Returns 0 if no events exist.
func (s *Store) LatestVersion(ctx context.Context, agentID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return 0, fmt.Errorf("agent id is required")
	}

	var latest uint64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE agent_id = ?`,
		agentID,
	)
	if err := row.Scan(&latest); err != nil {
		return 0, fmt.Errorf("latest version: %w", err)
	}
	return latest, nil
}
