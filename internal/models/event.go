package models

import (
	"time"
)

// Event is immutable after creation: there is no edit operation, only
// registration and attendance state hang off it.
type Event struct {
	ID                 int64  `gorm:"primaryKey"`
	Title              string `gorm:"not null"`
	Description        string `gorm:"not null;default:''"`
	StartsAt           time.Time
	Location           string `gorm:"not null;default:''"`
	RegistrationCloses time.Time
	ImageRef           string `gorm:"not null;default:''"`
	CreatedBy          int64  `gorm:"not null;index"`
	CreatedAt          time.Time
}

// RegistrationOpen reports whether new registrations are still accepted at
// the given wall-clock instant.
func (e *Event) RegistrationOpen(now time.Time) bool {
	return !e.RegistrationCloses.Before(now)
}
