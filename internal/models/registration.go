package models

import (
	"time"
)

// Registration status constants. The attendance transition is tracked by the
// Attended flag, not by rewriting Status.
const (
	RegistrationStatusConfirmed = "confirmed"
)

// Registration is the join entity between users and events. The composite
// primary key is the uniqueness guard for concurrent registration attempts:
// the insert either wins or fails with a unique violation, so at most one row
// can exist per (user, event) pair.
type Registration struct {
	UserID       int64     `gorm:"primaryKey"`
	EventID      int64     `gorm:"primaryKey"`
	RegisteredAt time.Time `gorm:"not null"`
	Status       string    `gorm:"not null;default:'confirmed'"`
	Attended     bool      `gorm:"not null;default:false"`
}
