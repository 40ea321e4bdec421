package models

import "time"

type HostRole string

const (
	RoleHost  HostRole = "host"
	RoleAdmin HostRole = "admin"
)

// Host is the read model of the auth/subscription collaborator. The engine
// never mutates it; it only checks activity at the moment of an action.
type Host struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Role               HostRole   `gorm:"size:16;default:host" json:"role"`
	IsActive           bool       `json:"is_active"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Expired reports whether the host's subscription has lapsed at ref time.
func (h *Host) Expired(ref time.Time) bool {
	if !h.IsActive {
		return true
	}
	return h.SubscriptionEndsAt != nil && h.SubscriptionEndsAt.Before(ref)
}
