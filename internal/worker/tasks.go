package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskAnnounceEvent = "event:announce"
	TaskNewsPoll      = "news:poll"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueAnnounceEvent enqueues the announcement fan-out for a freshly
// created event. Unique prevents a double announcement if the commit path
// is retried.
func EnqueueAnnounceEvent(eventID int64) error {
	payload, err := json.Marshal(map[string]int64{
		"event_id": eventID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskAnnounceEvent,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
