package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"journal/internal/events"
	"journal/internal/log"
	"journal/internal/storage"
)

type failingRecorder struct{}

func (failingRecorder) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestHandleEventCountsByType(t *testing.T) {
	w := NewActivityWorker(nil, log.Discard())
	ctx := context.Background()

	for _, e := range []events.Event{
		events.New(events.TransactionCreated, "a"),
		events.New(events.TransactionCreated, "b"),
		events.New(events.CategoryDeleted, "c"),
		{Type: events.TransactionReplied},
	} {
		if err := w.HandleEvent(ctx, e); err != nil {
			t.Fatalf("HandleEvent(%+v): %v", e, err)
		}
	}

	stats := w.Stats()
	if stats.Total != 3 || stats.Rejected != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.ByType[events.TransactionCreated] != 2 || stats.ByType[events.CategoryDeleted] != 1 {
		t.Fatalf("by type = %+v", stats.ByType)
	}

	stats.ByType[events.TransactionCreated] = 99
	if w.Stats().ByType[events.TransactionCreated] != 2 {
		t.Fatal("Stats shares its map with the worker")
	}
}

func TestHandleEventRecordsLastSeen(t *testing.T) {
	kv, err := storage.Open(filepath.Join(t.TempDir(), "activity.db"), log.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer kv.Close()

	w := NewActivityWorker(kv, log.Discard())
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := w.HandleEvent(ctx, events.Event{Type: events.TransactionDeleted, EntryID: "x", Timestamp: at}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	got, err := kv.Get(ctx, LastSeenKey(events.TransactionDeleted))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "2025-05-01T12:00:00Z" {
		t.Fatalf("last seen = %q", got)
	}
}

func TestHandleEventRecorderFailure(t *testing.T) {
	w := NewActivityWorker(failingRecorder{}, log.Discard())
	err := w.HandleEvent(context.Background(), events.New(events.CategoryCreated, "1"))
	if err == nil {
		t.Fatal("expected recorder error")
	}
	if w.Stats().Total != 0 {
		t.Fatal("failed event was counted")
	}
}
