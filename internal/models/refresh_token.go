package models

import (
	"time"
)

// RefreshToken is a stored session-continuation secret. Tokens are never
// deleted outside the owning user's cascade; revocation flips IsRevoked so
// the row remains as an audit record.
type RefreshToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Expires   time.Time `gorm:"not null" json:"expires"`
	IsRevoked bool      `gorm:"not null;default:false" json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the token can still be exchanged at the given time.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked && !now.After(t.Expires)
}
