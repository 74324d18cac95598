package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abitohelp/abitbot/internal/metrics"
	"github.com/abitohelp/abitbot/internal/models"
	"github.com/abitohelp/abitbot/internal/notify"
)

// RecipientLister enumerates user IDs subscribed to a notification category.
type RecipientLister interface {
	Recipients(ctx context.Context, category string) ([]int64, error)
}

// DeliverFunc sends one news item to one recipient.
type DeliverFunc func(ctx context.Context, recipientID int64, item Item) error

// HandleItem returns a stream handler that persists each item and fans it
// out to users subscribed to news. An item already persisted (stream replay)
// is acknowledged without a second fan-out.
func HandleItem(db *gorm.DB, recipients RecipientLister, notifier *notify.Notifier, deliver DeliverFunc, logger *slog.Logger) func(ctx context.Context, item Item) error {
	return func(ctx context.Context, item Item) error {
		record := models.NewsItem{
			Source:    item.Source,
			GUID:      item.GUID,
			Title:     item.Title,
			Link:      item.Link,
			CreatedAt: time.Now().UTC(),
		}
		if item.Raw != "" {
			record.Raw = datatypes.JSON(item.Raw)
		}
		if item.PublishedAt > 0 {
			record.PublishedAt = time.Unix(item.PublishedAt, 0).UTC()
		}

		result := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "guid"}},
			DoNothing: true,
		}).Create(&record)
		if result.Error != nil {
			return fmt.Errorf("persist news item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			logger.Debug("skipping replayed news item", "source", item.Source, "guid", item.GUID)
			return nil
		}
		metrics.NewsItems.Inc()

		ids, err := recipients.Recipients(ctx, models.CategoryNews)
		if err != nil {
			return fmt.Errorf("list news recipients: %w", err)
		}

		report := notifier.FanOut(ctx, ids, func(ctx context.Context, recipientID int64) error {
			return deliver(ctx, recipientID, item)
		})
		logger.Info("news item fanned out",
			"source", item.Source,
			"guid", item.GUID,
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
		)
		return nil
	}
}
