package bot

import (
	"context"
	"time"

	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/models"
)

// Sender is the outbound side of the messaging gateway.
type Sender interface {
	SendMessage(ctx context.Context, recipientID int64, text string, buttons ...gateway.Row) error
	SendPhoto(ctx context.Context, recipientID int64, photo []byte, caption string, buttons ...gateway.Row) error
	SendMedia(ctx context.Context, recipientID int64, fileRef, caption string, buttons ...gateway.Row) error
}

// IdentityStore is the identity and preference collaborator.
type IdentityStore interface {
	Upsert(ctx context.Context, id int64, name, handle string) error
	Get(ctx context.Context, id int64) (*models.User, error)
	SetRole(ctx context.Context, id int64, role models.Role) error
	HasAdminAccess(ctx context.Context, id int64) (bool, error)
	Preferences(ctx context.Context, id int64) (*models.NotificationPreference, error)
	TogglePreference(ctx context.Context, id int64, category string) (bool, error)
	Recipients(ctx context.Context, category string) ([]int64, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// EventStore is the event repository surface the dispatcher needs.
type EventStore interface {
	Create(ctx context.Context, draft events.Draft) (int64, error)
	Get(ctx context.Context, eventID int64) (*models.Event, error)
	ListActive(ctx context.Context, excludingRegistrantsOf int64, now time.Time) ([]models.Event, error)
	Register(ctx context.Context, userID, eventID int64) (*models.Registration, error)
	MarkAttended(ctx context.Context, attendeeID, eventID int64) error
	IsRegistered(ctx context.Context, userID, eventID int64) (bool, error)
	RegistrationsFor(ctx context.Context, userID int64) ([]models.Event, error)
	CountEvents(ctx context.Context) (int64, error)
	CountRegistrations(ctx context.Context) (int64, error)
}

// MediaStore is the media asset registry.
type MediaStore interface {
	Set(ctx context.Context, key, fileRef, description string) error
	Get(ctx context.Context, key string) (string, error)
}
