package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type collectingStore struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *collectingStore) Append(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *collectingStore) snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_PersistsEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &collectingStore{}
	d := NewDispatcher(2, store, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(Entry{Kind: KindLogin, Subject: "alice@example.com", Outcome: OutcomeAccepted})
	d.Enqueue(Entry{Kind: KindInvalidPassword, Subject: "bob@example.com", Outcome: OutcomeDenied})

	waitFor(t, func() bool { return len(store.snapshot()) == 2 })
}

func TestDispatcher_SameSubjectKeepsOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &collectingStore{}
	d := NewDispatcher(4, store, zerolog.Nop())
	d.Start(ctx)

	kinds := []string{KindEmailNotFound, KindInvalidPassword, KindLogin}
	for _, k := range kinds {
		d.Enqueue(Entry{Kind: k, Subject: "carol@example.com"})
	}

	waitFor(t, func() bool { return len(store.snapshot()) == len(kinds) })

	got := store.snapshot()
	for i, k := range kinds {
		if got[i].Kind != k {
			t.Fatalf("entry %d: got kind %s, want %s", i, got[i].Kind, k)
		}
	}
}

func TestLogger_RecordForwardsToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &collectingStore{}
	d := NewDispatcher(1, store, zerolog.Nop())
	d.Start(ctx)

	log := New(zerolog.Nop(), d)
	log.Record(Entry{Kind: KindGrant, Subject: "user:7", Resource: "reports", Outcome: OutcomeAccepted})

	waitFor(t, func() bool { return len(store.snapshot()) == 1 })

	got := store.snapshot()[0]
	if got.Kind != KindGrant || got.Subject != "user:7" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.At.IsZero() {
		t.Fatalf("Record must stamp the entry time")
	}
}
