package publish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fleetmind/agentcore/internal/domain/event"
	"github.com/fleetmind/agentcore/internal/storage"
	"github.com/fleetmind/agentcore/internal/storage/memory"
)

type capturePublisher struct {
	mu       sync.Mutex
	byAgent  map[string][]uint64
	failSeqs map[uint64]bool
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{byAgent: make(map[string][]uint64), failSeqs: make(map[uint64]bool)}
}

func (p *capturePublisher) Publish(ctx context.Context, env event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSeqs[env.Seq] {
		return errors.New("broker unavailable")
	}
	p.byAgent[env.AgentID] = append(p.byAgent[env.AgentID], env.Seq)
	return nil
}

func (p *capturePublisher) seqs(agentID string) []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.byAgent[agentID]...)
}

func appendTestEvents(t *testing.T, store *memory.Store, agentID string, from, count uint64) {
	t.Helper()
	events := make([]event.Event, 0, count)
	for i := uint64(0); i < count; i++ {
		events = append(events, event.Event{
			AgentID:     agentID,
			Type:        event.TypeAgentActivated,
			Timestamp:   time.Date(2026, 3, 14, 9, 0, int(from+i), 0, time.UTC),
			PayloadJSON: []byte(`{}`),
		})
	}
	if _, err := store.AppendEvents(context.Background(), agentID, from, events); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSweepDrainsBacklogInOrder(t *testing.T) {
	store := newTestStore(t)
	appendTestEvents(t, store, "agent-1", 0, 5)
	appendTestEvents(t, store, "agent-2", 0, 3)

	pub := newCapturePublisher()
	relay := &Relay{Events: store, Cursors: store, Publisher: pub}

	if err := relay.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want1 := []uint64{1, 2, 3, 4, 5}
	got1 := pub.seqs("agent-1")
	if len(got1) != len(want1) {
		t.Fatalf("agent-1 published %v, want %v", got1, want1)
	}
	for i := range want1 {
		if got1[i] != want1[i] {
			t.Fatalf("agent-1 published %v, want %v", got1, want1)
		}
	}
	if got2 := pub.seqs("agent-2"); len(got2) != 3 {
		t.Fatalf("agent-2 published %v, want 3 events", got2)
	}

	cursor, err := store.GetPublishCursor(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("GetPublishCursor: %v", err)
	}
	if cursor.PublishedSeq != 5 {
		t.Fatalf("cursor = %d, want 5", cursor.PublishedSeq)
	}

	backlog, err := store.ListPublishBacklog(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPublishBacklog: %v", err)
	}
	if len(backlog) != 0 {
		t.Fatalf("backlog = %+v, want empty", backlog)
	}
}

func TestSweepResumesFromExistingCursor(t *testing.T) {
	store := newTestStore(t)
	appendTestEvents(t, store, "agent-1", 0, 4)
	err := store.SavePublishCursor(context.Background(), storage.PublishCursor{
		AgentID:      "agent-1",
		PublishedSeq: 2,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SavePublishCursor: %v", err)
	}

	pub := newCapturePublisher()
	relay := &Relay{Events: store, Cursors: store, Publisher: pub}
	if err := relay.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got := pub.seqs("agent-1")
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("published %v, want [3 4]", got)
	}
}

func TestSweepStopsAgentOnPublishFailure(t *testing.T) {
	store := newTestStore(t)
	appendTestEvents(t, store, "agent-1", 0, 3)

	pub := newCapturePublisher()
	pub.failSeqs[2] = true
	relay := &Relay{Events: store, Cursors: store, Publisher: pub}

	if err := relay.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if got := pub.seqs("agent-1"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("published %v, want [1]", got)
	}
	cursor, err := store.GetPublishCursor(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("GetPublishCursor: %v", err)
	}
	if cursor.PublishedSeq != 1 {
		t.Fatalf("cursor = %d, want 1", cursor.PublishedSeq)
	}

	// Next sweep retries from the failed sequence.
	pub.mu.Lock()
	pub.failSeqs[2] = false
	pub.mu.Unlock()
	if err := relay.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep retry: %v", err)
	}
	if got := pub.seqs("agent-1"); len(got) != 3 || got[2] != 3 {
		t.Fatalf("published %v, want [1 2 3]", got)
	}
}

func TestSweepPagesThroughLargeBacklog(t *testing.T) {
	store := newTestStore(t)
	appendTestEvents(t, store, "agent-1", 0, 7)

	pub := newCapturePublisher()
	relay := &Relay{Events: store, Cursors: store, Publisher: pub, BatchSize: 2}
	if err := relay.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got := pub.seqs("agent-1"); len(got) != 7 {
		t.Fatalf("published %d events, want 7", len(got))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := newTestStore(t)
	pub := newCapturePublisher()
	relay := &Relay{Events: store, Cursors: store, Publisher: pub, Interval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestSweepRequiresDependencies(t *testing.T) {
	relay := &Relay{}
	if err := relay.Sweep(context.Background()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
