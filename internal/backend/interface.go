package backend

import (
	"context"

	"journal/internal/events"
	"journal/internal/session"
)

// CleanupFunc releases a resource opened by the factory.
type CleanupFunc func() error

// Check is a named readiness probe for a backing resource.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Result bundles the infrastructure the journal process runs on.
type Result struct {
	Store     session.Store
	Publisher events.Publisher
	Checks    []Check
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type StoreType

	// SQLite specific
	SQLiteDBPath string

	// Activity events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// StoreType selects where the session token lives.
type StoreType string

const (
	SQLiteStore StoreType = "sqlite"
	MemoryStore StoreType = "memory"
)

func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is known
func (st StoreType) IsValid() bool {
	switch st {
	case SQLiteStore, MemoryStore:
		return true
	default:
		return false
	}
}
