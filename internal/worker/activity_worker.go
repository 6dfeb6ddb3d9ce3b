package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"journal/internal/events"
	"journal/internal/log"
)

// Recorder persists small key/value facts. storage.KV satisfies it.
type Recorder interface {
	Set(ctx context.Context, key, value string) error
}

// LastSeenKey is the key under which the time of the latest event of type t
// is recorded.
func LastSeenKey(t events.Type) string {
	return "activity:last:" + string(t)
}

// Stats is a snapshot of what the worker has handled so far.
type Stats struct {
	Total    int64
	Rejected int64
	ByType   map[events.Type]int64
}

// ActivityWorker handles journal activity events consumed from AMQP.
type ActivityWorker struct {
	recorder Recorder
	logger   *log.Logger

	mu    sync.Mutex
	stats Stats
}

// NewActivityWorker creates a worker. recorder may be nil, in which case
// events are only logged and counted.
func NewActivityWorker(recorder Recorder, logger *log.Logger) *ActivityWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ActivityWorker{
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentEvents),
		stats:    Stats{ByType: make(map[events.Type]int64)},
	}
}

// HandleEvent processes a single activity event. Events without an entry id
// are rejected so the consumer does not requeue them forever.
func (w *ActivityWorker) HandleEvent(ctx context.Context, e events.Event) error {
	if e.EntryID == "" {
		w.mu.Lock()
		w.stats.Rejected++
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Dropping activity event without entry id", "type", string(e.Type))
		return nil
	}

	w.logger.InfoContext(ctx, "Activity",
		"type", string(e.Type),
		"entry_id", e.EntryID,
		"at", e.Timestamp.Format(time.RFC3339))

	if w.recorder != nil {
		if err := w.recorder.Set(ctx, LastSeenKey(e.Type), e.Timestamp.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record %s: %w", e.Type, err)
		}
	}

	w.mu.Lock()
	w.stats.Total++
	w.stats.ByType[e.Type]++
	w.mu.Unlock()
	return nil
}

// Stats returns a copy of the counters.
func (w *ActivityWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := Stats{Total: w.stats.Total, Rejected: w.stats.Rejected, ByType: make(map[events.Type]int64, len(w.stats.ByType))}
	for k, v := range w.stats.ByType {
		out.ByType[k] = v
	}
	return out
}
