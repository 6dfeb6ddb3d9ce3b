package backend

import (
	"context"
	"errors"
	"fmt"

	"journal/internal/events"
	"journal/internal/log"
	"journal/internal/session"
	"journal/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// newEvents is replaced in tests.
	newEvents func(url, exchange, queue string, logger *log.Logger) (*events.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:    logger,
		newEvents: events.NewClient,
	}
}

// CreateBackend opens the session store and, when configured, the activity
// event publisher. A broker that cannot be reached downgrades to a no-op
// publisher instead of failing startup.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Publisher: events.Noop{}}
	var cleanups []CleanupFunc

	switch config.Type {
	case SQLiteStore:
		kv, err := storage.Open(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		cleanups = append(cleanups, kv.Close)
		res.Store = session.NewKVStore(kv)
		res.Checks = append(res.Checks, Check{Name: "session_store", Check: kv.Ping})
		f.logger.Info("Using SQLite session store", "path", config.SQLiteDBPath)
	case MemoryStore:
		res.Store = session.NewMemoryStore()
		f.logger.Info("Using in-memory session store; logins will not survive a restart")
	}

	if config.AMQPURL != "" {
		ev, err := f.newEvents(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Activity events disabled: AMQP unavailable", log.FieldError, err)
		} else {
			cleanups = append(cleanups, ev.Close)
			res.Publisher = ev
			res.Checks = append(res.Checks, Check{Name: "events", Check: func(context.Context) error { return ev.Ping() }})
			f.logger.Info("Publishing activity events",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}
