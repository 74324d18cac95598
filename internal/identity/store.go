// Package identity owns user records and notification preferences. Users are
// upserted on first contact and never deleted; preferences are created with
// the user and mutated only by explicit toggles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abitohelp/abitbot/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type Store struct {
	db *gorm.DB

	// superAdminID has admin capability regardless of stored role.
	superAdminID int64
}

func NewStore(db *gorm.DB, superAdminID int64) *Store {
	return &Store{db: db, superAdminID: superAdminID}
}

// Upsert records first contact with a user: the row is created with the
// default role, or name and handle are refreshed if it already exists. A
// default preference row (both categories enabled) is ensured alongside.
func (s *Store) Upsert(ctx context.Context, id int64, name, handle string) error {
	user := models.User{
		ID:       id,
		Name:     name,
		Handle:   handle,
		Role:     models.RoleApplicant,
		JoinedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "handle"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	pref := models.NotificationPreference{
		UserID:        id,
		EventsEnabled: true,
		NewsEnabled:   true,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("ensure preferences: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *Store) SetRole(ctx context.Context, id int64, role models.Role) error {
	if !models.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("set role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("set status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// HasAdminAccess reports whether the user may perform privileged operations:
// event creation, role assignment, broadcast, and attendance check-in.
func (s *Store) HasAdminAccess(ctx context.Context, id int64) (bool, error) {
	if s.superAdminID != 0 && id == s.superAdminID {
		return true, nil
	}
	user, err := s.Get(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Role.Admin(), nil
}

func (s *Store) Preferences(ctx context.Context, id int64) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).First(&pref, "user_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Missing row behaves like the defaults.
		return &models.NotificationPreference{UserID: id, EventsEnabled: true, NewsEnabled: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &pref, nil
}

// TogglePreference flips the flag for the given category ("events" or
// "news") and returns the new value.
func (s *Store) TogglePreference(ctx context.Context, id int64, category string) (bool, error) {
	column, err := preferenceColumn(category)
	if err != nil {
		return false, err
	}

	result := s.db.WithContext(ctx).Model(&models.NotificationPreference{}).
		Where("user_id = ?", id).
		Update(column, gorm.Expr("NOT "+column))
	if result.Error != nil {
		return false, fmt.Errorf("toggle preference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, ErrUserNotFound
	}

	pref, err := s.Preferences(ctx, id)
	if err != nil {
		return false, err
	}
	if category == models.CategoryEvents {
		return pref.EventsEnabled, nil
	}
	return pref.NewsEnabled, nil
}

// Recipients returns the IDs of all users whose flag for the given category
// is enabled, for notification fan-out.
func (s *Store) Recipients(ctx context.Context, category string) ([]int64, error) {
	column, err := preferenceColumn(category)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = s.db.WithContext(ctx).Model(&models.NotificationPreference{}).
		Where(column+" = ?", true).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return ids, nil
}

// Search finds users by exact numeric ID or by name substring.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	tx := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Limit(limit)
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		tx = tx.Where("id = ?", id)
	} else {
		tx = tx.Where("name ILIKE ?", "%"+query+"%")
	}

	var users []models.User
	if err := tx.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func preferenceColumn(category string) (string, error) {
	switch category {
	case models.CategoryEvents:
		return "events_enabled", nil
	case models.CategoryNews:
		return "news_enabled", nil
	default:
		return "", fmt.Errorf("unknown notification category %q", category)
	}
}
