package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fleetmind/agentcore/internal/storage"
)

// GetPublishCursor returns the publish cursor for an agent.
// Returns storage.ErrNotFound if the agent has never been published.
func (s *Store) GetPublishCursor(ctx context.Context, agentID string) (storage.PublishCursor, error) {
	if err := ctx.Err(); err != nil {
		return storage.PublishCursor{}, err
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return storage.PublishCursor{}, fmt.Errorf("agent id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT agent_id, published_seq, updated_at FROM publish_cursors WHERE agent_id = ?`,
		agentID,
	)
	var cursor storage.PublishCursor
	var publishedSeq, updatedAtMillis int64
	err := row.Scan(&cursor.AgentID, &publishedSeq, &updatedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.PublishCursor{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PublishCursor{}, fmt.Errorf("get publish cursor: %w", err)
	}
	cursor.PublishedSeq = uint64(publishedSeq)
	cursor.UpdatedAt = fromMillis(updatedAtMillis)
	return cursor, nil
}

// SavePublishCursor upserts the publish cursor for an agent.
func (s *Store) SavePublishCursor(ctx context.Context, cursor storage.PublishCursor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cursor.AgentID = strings.TrimSpace(cursor.AgentID)
	if cursor.AgentID == "" {
		return fmt.Errorf("agent id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO publish_cursors (agent_id, published_seq, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (agent_id) DO UPDATE SET
		     published_seq = excluded.published_seq,
		     updated_at = excluded.updated_at`,
		cursor.AgentID,
		int64(cursor.PublishedSeq),
		toMillis(cursor.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save publish cursor: %w", err)
	}
	return nil
}

// ListPublishBacklog returns cursors for agents whose latest event sequence
// is ahead of their published sequence, ordered by agent id. Agents without
// a cursor row appear with PublishedSeq 0.
func (s *Store) ListPublishBacklog(ctx context.Context, limit int) ([]storage.PublishCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT e.agent_id, COALESCE(c.published_seq, 0), COALESCE(c.updated_at, 0)
		 FROM (SELECT agent_id, MAX(seq) AS latest_seq FROM events GROUP BY agent_id) e
		 LEFT JOIN publish_cursors c ON c.agent_id = e.agent_id
		 WHERE e.latest_seq > COALESCE(c.published_seq, 0)
		 ORDER BY e.agent_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list publish backlog: %w", err)
	}
	defer rows.Close()

	var backlog []storage.PublishCursor
	for rows.Next() {
		var cursor storage.PublishCursor
		var publishedSeq, updatedAtMillis int64
		if err := rows.Scan(&cursor.AgentID, &publishedSeq, &updatedAtMillis); err != nil {
			return nil, fmt.Errorf("scan publish cursor: %w", err)
		}
		cursor.PublishedSeq = uint64(publishedSeq)
		if updatedAtMillis > 0 {
			cursor.UpdatedAt = fromMillis(updatedAtMillis)
		}
		backlog = append(backlog, cursor)
	}
	return backlog, rows.Err()
}
