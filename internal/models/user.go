package models

import (
	"time"
)

// Role is the permission tier of a user.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleStudent   Role = "student"
	RoleCurator   Role = "curator"
	RoleModerator Role = "moderator"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleApplicant, RoleStudent, RoleCurator, RoleModerator:
		return true
	}
	return false
}

// Admin reports whether the role grants admin capability (event creation,
// role assignment, broadcast, check-in).
func (r Role) Admin() bool {
	return r == RoleCurator || r == RoleModerator
}

// User represents a chat user. The ID is issued by the messaging gateway and
// is stable across sessions. Users are created on first contact and never
// deleted.
type User struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"not null;default:''"`
	Handle   string `gorm:"not null;default:''"`
	Role     Role   `gorm:"type:text;not null;default:'applicant'"`
	Status   string `gorm:"not null;default:''"`
	JoinedAt time.Time

	Preference *NotificationPreference `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}
