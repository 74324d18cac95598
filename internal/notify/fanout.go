// Package notify implements best-effort notification fan-out: one message
// per opted-in recipient, failures skipped and counted, never rolled back.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/abitohelp/abitbot/internal/metrics"
)

// SendFunc delivers one message to one recipient.
type SendFunc func(ctx context.Context, recipientID int64) error

// Report aggregates a fan-out run for operator-facing summaries.
type Report struct {
	Attempted int
	Succeeded int
}

func (r Report) Failed() int {
	return r.Attempted - r.Succeeded
}

// Notifier runs sequential fan-outs with optional pacing between deliveries.
type Notifier struct {
	logger *slog.Logger

	// delay is the minimum gap between consecutive deliveries, to respect
	// the gateway rate limit. Zero disables pacing.
	delay time.Duration
}

func New(logger *slog.Logger, delay time.Duration) *Notifier {
	return &Notifier{logger: logger, delay: delay}
}

// FanOut delivers to each recipient in turn. A per-recipient failure is
// logged, counted, and skipped; it never aborts the remaining deliveries.
// Context cancellation stops the run early with the partial report.
func (n *Notifier) FanOut(ctx context.Context, recipients []int64, send SendFunc) Report {
	var report Report
	for i, recipientID := range recipients {
		if ctx.Err() != nil {
			n.logger.Warn("fan-out interrupted",
				"attempted", report.Attempted,
				"remaining", len(recipients)-i,
			)
			return report
		}
		if i > 0 && n.delay > 0 {
			time.Sleep(n.delay)
		}

		report.Attempted++
		metrics.DeliveriesAttempted.Inc()
		if err := send(ctx, recipientID); err != nil {
			metrics.DeliveriesFailed.Inc()
			n.logger.Debug("delivery failed, skipping recipient",
				"recipient_id", recipientID,
				"error", err.Error(),
			)
			continue
		}
		report.Succeeded++
	}
	return report
}
