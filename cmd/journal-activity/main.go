// Command journal-activity consumes journal activity events and logs them.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"journal/internal/cli"
	"journal/internal/events"
	"journal/internal/log"
	"journal/internal/storage"
	"journal/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentEvents)

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}
	exchange := getEnv("AMQP_EXCHANGE", "journal")
	queue := getEnv("AMQP_QUEUE", "journal_activity")

	// Last-seen times per event type, optional
	var recorder worker.Recorder
	if path := os.Getenv("ACTIVITY_DB_PATH"); path != "" {
		kv, err := storage.Open(path, logger)
		if err != nil {
			logger.Error("Failed to open activity database", log.FieldError, err, "path", path)
			os.Exit(1)
		}
		defer kv.Close()
		recorder = kv
	}
	w := worker.NewActivityWorker(recorder, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	client, err := events.NewClientWithRetry(ctx, amqpURL, exchange, queue, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Consuming activity events", "exchange", exchange, "queue", queue)
	err = client.Consume(ctx, w.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	stats := w.Stats()
	logger.Info("Consumer stopped", "handled", stats.Total, "rejected", stats.Rejected)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
