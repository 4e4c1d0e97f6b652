// Package memory provides the in-process reference implementation of the
// storage interfaces. It is the fixture for domain and engine tests and a
// usable backend for single-process tooling.
package memory

import "fmt"

// Store bundles the in-memory event journal and snapshot cache behind the
// composite storage.Store interface.
type Store struct {
	*EventStore
	*SnapshotStore
}

// NewStore creates an in-memory store with the default snapshot cache size.
func NewStore() (*Store, error) {
	snapshots, err := NewSnapshotStore(DefaultSnapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("new snapshot store: %w", err)
	}
	return &Store{
		EventStore:    NewEventStore(),
		SnapshotStore: snapshots,
	}, nil
}

// Close implements storage.Store. Nothing to release for memory stores.
func (s *Store) Close() error {
	return nil
}
