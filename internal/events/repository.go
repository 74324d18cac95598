// Package events owns event records and their registrations. A registration
// moves through confirmed to attended and never back; the composite primary
// key on (user_id, event_id) is what makes duplicate registration attempts
// safe under concurrency.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/abitohelp/abitbot/internal/models"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrAlreadyRegistered = errors.New("user already registered for event")
	ErrNotRegistered     = errors.New("user not registered for event")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Draft carries the fields accumulated by the creation flow. The flow
// validates them before commit; the repository only persists.
type Draft struct {
	Title              string
	Description        string
	StartsAt           time.Time
	Location           string
	RegistrationCloses time.Time
	ImageRef           string
	CreatedBy          int64
}

// Create persists a new event and returns its assigned identifier.
func (r *Repository) Create(ctx context.Context, draft Draft) (int64, error) {
	event := models.Event{
		Title:              draft.Title,
		Description:        draft.Description,
		StartsAt:           draft.StartsAt,
		Location:           draft.Location,
		RegistrationCloses: draft.RegistrationCloses,
		ImageRef:           draft.ImageRef,
		CreatedBy:          draft.CreatedBy,
		CreatedAt:          time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return event.ID, nil
}

func (r *Repository) Get(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// ListActive returns events whose registration deadline has not passed and
// for which the given user holds no registration, ordered by ascending
// deadline. The result is a plain slice; re-querying is safe.
func (r *Repository) ListActive(ctx context.Context, excludingRegistrantsOf int64, now time.Time) ([]models.Event, error) {
	var result []models.Event
	err := r.db.WithContext(ctx).
		Where("registration_closes >= ?", now).
		Where("id NOT IN (?)",
			r.db.Model(&models.Registration{}).Select("event_id").Where("user_id = ?", excludingRegistrantsOf)).
		Order("registration_closes ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("list active events: %w", err)
	}
	return result, nil
}

// Register inserts a registration for the pair. The event must exist; a
// duplicate attempt returns ErrAlreadyRegistered. The prior-read check is
// only a fast path — the composite primary key decides the race, so two
// simultaneous attempts yield exactly one row.
func (r *Repository) Register(ctx context.Context, userID, eventID int64) (*models.Registration, error) {
	if _, err := r.Get(ctx, eventID); err != nil {
		return nil, err
	}

	var existing models.Registration
	err := r.db.WithContext(ctx).
		First(&existing, "user_id = ? AND event_id = ?", userID, eventID).Error
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}

	registration := models.Registration{
		UserID:       userID,
		EventID:      eventID,
		RegisteredAt: time.Now().UTC(),
		Status:       models.RegistrationStatusConfirmed,
	}
	if err := r.db.WithContext(ctx).Create(&registration).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	return &registration, nil
}

// MarkAttended flips the attended flag for an existing registration. Marking
// twice is a no-op success; marking without a registration is
// ErrNotRegistered and creates nothing.
func (r *Repository) MarkAttended(ctx context.Context, attendeeID, eventID int64) error {
	result := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("user_id = ? AND event_id = ?", attendeeID, eventID).
		Update("attended", true)
	if result.Error != nil {
		return fmt.Errorf("mark attended: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotRegistered
	}
	return nil
}

// RegistrationsFor returns the events the user is registered to, oldest
// registration first.
func (r *Repository) RegistrationsFor(ctx context.Context, userID int64) ([]models.Event, error) {
	var result []models.Event
	err := r.db.WithContext(ctx).Model(&models.Event{}).
		Joins("JOIN registrations ON registrations.event_id = events.id").
		Where("registrations.user_id = ?", userID).
		Order("registrations.registered_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return result, nil
}

// IsRegistered reports whether a registration exists for the pair.
func (r *Repository) IsRegistered(ctx context.Context, userID, eventID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Event{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (r *Repository) CountRegistrations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Registration{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// isUniqueViolation detects a rejected insert on the registrations composite
// key, either as GORM's translated error or as the raw Postgres SQLSTATE.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
