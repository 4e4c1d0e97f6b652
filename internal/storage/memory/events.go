package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
	"github.com/fleetmind/agentcore/internal/storage"
)

// EventStore is an in-process event journal with per-agent streams.
//
// The outer lock only guards the stream map; each stream carries its own
// mutex so writers targeting different agents never contend. The stream
// mutex is the compare-and-append serialization point.
type EventStore struct {
	mu      sync.RWMutex
	streams map[string]*stream
	cursors map[string]storage.PublishCursor
}

type stream struct {
	mu        sync.Mutex
	envelopes []event.Envelope
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		streams: make(map[string]*stream),
		cursors: make(map[string]storage.PublishCursor),
	}
}

func (s *EventStore) stream(agentID string) *stream {
	s.mu.RLock()
	st, ok := s.streams[agentID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.streams[agentID]; ok {
		return st
	}
	st = &stream{}
	s.streams[agentID] = st
	return st
}

// AppendEvents atomically appends events at consecutive sequence numbers
// starting at expectedVersion+1.
func (s *EventStore) AppendEvents(ctx context.Context, agentID string, expectedVersion uint64, events []event.Event) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
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

	st := s.stream(agentID)
	st.mu.Lock()
	defer st.mu.Unlock()

	actual := uint64(len(st.envelopes))
	if actual != expectedVersion {
		return nil, &storage.ConflictError{AgentID: agentID, Expected: expectedVersion, Actual: actual}
	}

	recordedAt := time.Now().UTC()
	appended := make([]event.Envelope, len(normalized))
	for i, evt := range normalized {
		appended[i] = event.Envelope{
			Event:      evt,
			Seq:        expectedVersion + uint64(i) + 1,
			RecordedAt: recordedAt,
		}
	}
	st.envelopes = append(st.envelopes, appended...)
	return appended, nil
}

// ReadEvents returns envelopes ordered by sequence ascending from fromSeq
// inclusive. A limit of 0 means no limit.
func (s *EventStore) ReadEvents(ctx context.Context, agentID string, fromSeq uint64, limit int) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.stream(agentID)
	st.mu.Lock()
	defer st.mu.Unlock()

	var result []event.Envelope
	for _, env := range st.envelopes {
		if env.Seq < fromSeq {
			continue
		}
		result = append(result, env)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// LatestVersion returns the latest event sequence number for an agent.
func (s *EventStore) LatestVersion(ctx context.Context, agentID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	st := s.stream(agentID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return uint64(len(st.envelopes)), nil
}

// GetPublishCursor returns the cursor for an agent.
func (s *EventStore) GetPublishCursor(ctx context.Context, agentID string) (storage.PublishCursor, error) {
	if err := ctx.Err(); err != nil {
		return storage.PublishCursor{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[agentID]
	if !ok {
		return storage.PublishCursor{}, storage.ErrNotFound
	}
	return cursor, nil
}

// SavePublishCursor upserts the cursor for an agent.
func (s *EventStore) SavePublishCursor(ctx context.Context, cursor storage.PublishCursor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cursor.AgentID = strings.TrimSpace(cursor.AgentID)
	if cursor.AgentID == "" {
		return fmt.Errorf("agent id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursor.AgentID] = cursor
	return nil
}

// ListPublishBacklog returns cursors for agents whose stream is ahead of
// their published sequence, ordered by agent id.
func (s *EventStore) ListPublishBacklog(ctx context.Context, limit int) ([]storage.PublishCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	agentIDs := make([]string, 0, len(s.streams))
	for agentID := range s.streams {
		agentIDs = append(agentIDs, agentID)
	}
	s.mu.RUnlock()
	sort.Strings(agentIDs)

	var backlog []storage.PublishCursor
	for _, agentID := range agentIDs {
		latest, err := s.LatestVersion(ctx, agentID)
		if err != nil {
			return nil, err
		}

		s.mu.RLock()
		cursor, ok := s.cursors[agentID]
		s.mu.RUnlock()
		if !ok {
			cursor = storage.PublishCursor{AgentID: agentID}
		}
		if cursor.PublishedSeq >= latest {
			continue
		}
		backlog = append(backlog, cursor)
		if limit > 0 && len(backlog) >= limit {
			break
		}
	}
	return backlog, nil
}
