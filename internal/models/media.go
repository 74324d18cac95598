package models

// MediaAsset maps a well-known key ("welcome", "moder", ...) to a file
// reference previously uploaded to the messaging gateway. Panels fall back to
// plain text when no asset is registered for their key.
type MediaAsset struct {
	Key         string `gorm:"primaryKey"`
	FileRef     string `gorm:"not null"`
	Description string `gorm:"not null;default:''"`
}
