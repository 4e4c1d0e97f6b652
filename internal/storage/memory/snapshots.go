package memory

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fleetmind/agentcore/internal/storage"
)

// DefaultSnapshotCacheSize bounds how many agents keep an in-memory snapshot.
const DefaultSnapshotCacheSize = 1024

// SnapshotStore keeps the latest snapshot per agent in a bounded LRU cache.
// Eviction is safe: a missing snapshot only means a longer replay.
type SnapshotStore struct {
	cache *lru.Cache
}

// NewSnapshotStore creates a snapshot cache holding up to size entries.
func NewSnapshotStore(size int) (*SnapshotStore, error) {
	if size <= 0 {
		size = DefaultSnapshotCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &SnapshotStore{cache: cache}, nil
}

// PutSnapshot stores a snapshot, replacing any older one for the agent.
func (s *SnapshotStore) PutSnapshot(ctx context.Context, snap storage.Snapshot) error {
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
	snap.StateJSON = append([]byte(nil), snap.StateJSON...)
	s.cache.Add(snap.AgentID, snap)
	return nil
}

// GetLatestSnapshot retrieves the most recent snapshot for an agent.
func (s *SnapshotStore) GetLatestSnapshot(ctx context.Context, agentID string) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	value, ok := s.cache.Get(strings.TrimSpace(agentID))
	if !ok {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	snap, ok := value.(storage.Snapshot)
	if !ok {
		return storage.Snapshot{}, fmt.Errorf("unexpected snapshot cache entry type %T", value)
	}
	return snap, nil
}
