package models

// Notification categories a user can opt in or out of.
const (
	CategoryEvents = "events"
	CategoryNews   = "news"
)

// NotificationPreference holds the per-user opt-in flags, one row per user,
// created alongside the user with both categories enabled.
type NotificationPreference struct {
	UserID        int64 `gorm:"primaryKey"`
	EventsEnabled bool  `gorm:"not null;default:true"`
	NewsEnabled   bool  `gorm:"not null;default:true"`
}
