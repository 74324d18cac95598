package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abitohelp/abitbot/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler for periodic tasks.
// Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config, logger *slog.Logger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	task := asynq.NewTask(
		TaskNewsPoll,
		nil, // no payload: the handler reads the configured sources
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(5*time.Minute), // prevent overlap if a poll runs long
	)

	entryID, err := scheduler.Register(cfg.NewsPollCron, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register news poll schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"schedule", cfg.NewsPollCron,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
