// Package media is the registry of gateway file references used by panels
// (welcome animation, moderator panel, ...). Assets are registered by
// operators at runtime; panels fall back to plain text when a key is absent.
package media

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abitohelp/abitbot/internal/models"
)

// Well-known asset keys.
const (
	KeyWelcome       = "welcome"
	KeyModerator     = "moder"
	KeyProfile       = "profile"
	KeyNotifications = "notifications"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Set registers or replaces the file reference for a key.
func (s *Store) Set(ctx context.Context, key, fileRef, description string) error {
	asset := models.MediaAsset{Key: key, FileRef: fileRef, Description: description}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_ref", "description"}),
	}).Create(&asset).Error
	if err != nil {
		return fmt.Errorf("set media asset: %w", err)
	}
	return nil
}

// Get returns the file reference for a key, or "" when none is registered.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var asset models.MediaAsset
	err := s.db.WithContext(ctx).First(&asset, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get media asset: %w", err)
	}
	return asset.FileRef, nil
}
