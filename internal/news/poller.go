package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/redis/go-redis/v9"
)

// seenKeyTTL bounds the per-source dedup set; feeds republish entries well
// within this window.
const seenKeyTTL = 30 * 24 * time.Hour

// Poller fetches configured feeds and publishes entries it has not seen
// before. Seen GUIDs are tracked per source in Redis so restarts do not
// replay the whole feed.
type Poller struct {
	sources   []Source
	parser    *gofeed.Parser
	rdb       *redis.Client
	publisher *Publisher
	logger    *slog.Logger
}

func NewPoller(sources []Source, redisURL string, publisher *Publisher, logger *slog.Logger) (*Poller, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &Poller{
		sources:   sources,
		parser:    gofeed.NewParser(),
		rdb:       redis.NewClient(opts),
		publisher: publisher,
		logger:    logger,
	}, nil
}

func seenKey(source string) string {
	return "news:seen:" + source
}

// PollOnce fetches every source once and publishes new entries. Per-source
// failures are logged and skipped; the other sources still run. Returns the
// number of newly published items.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	published := 0
	for _, source := range p.sources {
		count, err := p.pollSource(ctx, source)
		if err != nil {
			p.logger.Error("feed poll failed", "source", source.Name, "error", err.Error())
			continue
		}
		published += count
	}
	return published, nil
}

func (p *Poller) pollSource(ctx context.Context, source Source) (int, error) {
	feed, err := p.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	published := 0
	for _, entry := range feed.Items {
		guid := entry.GUID
		if guid == "" {
			guid = entry.Link
		}
		if guid == "" {
			continue
		}

		isNew, err := p.rdb.SAdd(ctx, seenKey(source.Name), guid).Result()
		if err != nil {
			return published, fmt.Errorf("dedup check: %w", err)
		}
		if isNew == 0 {
			continue
		}

		item := Item{
			Source:  source.Name,
			GUID:    guid,
			Title:   entry.Title,
			Link:    entry.Link,
			Summary: entry.Description,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.Unix()
		}
		if raw, err := json.Marshal(entry); err == nil {
			item.Raw = string(raw)
		}

		if _, err := p.publisher.Publish(ctx, item); err != nil {
			// Let the next poll retry this entry.
			_ = p.rdb.SRem(ctx, seenKey(source.Name), guid)
			return published, fmt.Errorf("publish item: %w", err)
		}
		published++
	}

	if err := p.rdb.Expire(ctx, seenKey(source.Name), seenKeyTTL).Err(); err != nil {
		p.logger.Warn("failed to refresh dedup TTL", "source", source.Name, "error", err.Error())
	}

	if published > 0 {
		p.logger.Info("published new feed entries", "source", source.Name, "count", published)
	}
	return published, nil
}

func (p *Poller) Close() error {
	return p.rdb.Close()
}
