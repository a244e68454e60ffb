package models

import "time"

// Link représente un lien raccourci à quota de clics.
// ShortCode n'a qu'un index simple: l'unicité est garantie par le service au moment de la création.
type Link struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ShortCode  string    `gorm:"index;size:32;not null" json:"short_code"`
	LongURL    string    `gorm:"not null" json:"long_url"`
	OwnerID    string    `gorm:"index;size:36;not null" json:"owner_id"`
	MaxClicks  int       `gorm:"not null" json:"max_clicks"`
	ClickCount int       `gorm:"not null" json:"click_count"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expires_at"`
	Active     bool      `gorm:"not null" json:"active"`
}

// IsExpired reports whether now is strictly after the expiry instant.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// QuotaReached reports whether the click budget is used up.
func (l *Link) QuotaReached() bool {
	return l.ClickCount >= l.MaxClicks
}
