// Package news implements the news pipeline: a poller fetches configured
// feeds and publishes new entries to a Redis stream, and a consumer takes
// items off the stream, persists them, and fans them out to subscribed
// users. The stream is the producer boundary — any external producer may
// push items in the same format.
package news

// Stream and consumer group constants.
const (
	StreamItems = "news:items"
	GroupBot    = "abitbot-workers"
)

// Schema version constant.
const (
	SchemaVersionV1 = "v1"
)

// Item is one news entry on the stream.
type Item struct {
	Source      string `json:"source"`
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Summary     string `json:"summary"`
	PublishedAt int64  `json:"published_at"` // unix seconds, 0 if unknown
	Raw         string `json:"raw,omitempty"`
}
