package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abitohelp/abitbot/internal/config"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/models"
	"github.com/abitohelp/abitbot/internal/news"
	"github.com/abitohelp/abitbot/internal/notify"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Deps are the collaborators task handlers need. DeliverEvent renders and
// sends one event announcement to one recipient; the worker stays ignorant
// of message formatting.
type Deps struct {
	Repo         *events.Repository
	Recipients   news.RecipientLister
	Notifier     *notify.Notifier
	DeliverEvent func(ctx context.Context, recipientID int64, event *models.Event) error
	Poller       *news.Poller
}

// Start starts the Asynq worker in non-blocking mode and returns a stop
// function so the caller can coordinate shutdown.
func Start(cfg *config.Config, logger *slog.Logger, deps Deps) (stop func(), err error) {
	srv, mux, err := newServer(cfg, logger, deps)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, logger *slog.Logger, deps Deps) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAnnounceEvent, handleAnnounceEvent(logger, deps))
	mux.HandleFunc(TaskNewsPoll, handleNewsPoll(logger, deps))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleAnnounceEvent fans out a created event to every user subscribed to
// event notifications. Per-recipient failures are absorbed by the notifier;
// this task only fails (and retries) when the event or the recipient list
// cannot be loaded.
func handleAnnounceEvent(logger *slog.Logger, deps Deps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			EventID int64 `json:"event_id"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		event, err := deps.Repo.Get(ctx, payload.EventID)
		if err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				logger.Error("announce: event not found", "event_id", payload.EventID)
				return fmt.Errorf("event not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("failed to fetch event: %w", err)
		}

		ids, err := deps.Recipients.Recipients(ctx, models.CategoryEvents)
		if err != nil {
			return fmt.Errorf("failed to list recipients: %w", err)
		}

		report := deps.Notifier.FanOut(ctx, ids, func(ctx context.Context, recipientID int64) error {
			return deps.DeliverEvent(ctx, recipientID, event)
		})
		logger.Info("event announced",
			"event_id", event.ID,
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
		)
		return nil
	}
}

// handleNewsPoll runs one poll cycle over the configured feeds.
func handleNewsPoll(logger *slog.Logger, deps Deps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, _ *asynq.Task) error {
		if deps.Poller == nil {
			logger.Debug("news poll skipped: no sources configured")
			return nil
		}
		published, err := deps.Poller.PollOnce(ctx)
		if err != nil {
			return fmt.Errorf("news poll failed: %w", err)
		}
		if published > 0 {
			logger.Info("news poll finished", "published", published)
		}
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
