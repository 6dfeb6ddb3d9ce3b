package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type names an activity on the journal.
type Type string

const (
	TransactionCreated Type = "transaction.created"
	TransactionReplied Type = "transaction.replied"
	TransactionDeleted Type = "transaction.deleted"
	CategoryCreated    Type = "category.created"
	CategoryDeleted    Type = "category.deleted"
)

// Event is a small activity notice. It carries ids only; consumers read the
// entry itself from the journal API.
type Event struct {
	Type      Type      `json:"type"`
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends activity events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func New(t Type, entryID string) Event {
	return Event{Type: t, EntryID: entryID, Timestamp: time.Now().UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event and rejects bodies without a type.
func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return e, nil
}

// Noop drops every event. Used when AMQP is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
