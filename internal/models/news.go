package models

import (
	"time"

	"gorm.io/datatypes"
)

// NewsItem is one entry taken off the news stream. GUID is the feed-assigned
// identifier and deduplicates replays; Raw keeps the original entry for
// debugging and later re-rendering.
type NewsItem struct {
	ID          int64  `gorm:"primaryKey"`
	Source      string `gorm:"not null;uniqueIndex:idx_news_items_source_guid"`
	GUID        string `gorm:"column:guid;not null;uniqueIndex:idx_news_items_source_guid"`
	Title       string `gorm:"not null"`
	Link        string `gorm:"not null;default:''"`
	Raw         datatypes.JSON
	PublishedAt time.Time
	CreatedAt   time.Time
}
