package models

import "time"

// UserProfile holds the per-user defaults applied to every new link.
type UserProfile struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	DefaultMaxClicks int       `gorm:"not null" json:"default_max_clicks"`
	TTLHours         int       `gorm:"not null" json:"ttl_hours"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TTL returns the policy TTL as a duration.
func (u *UserProfile) TTL() time.Duration {
	return time.Duration(u.TTLHours) * time.Hour
}
