package models

import "time"

// RefreshToken is the durable record behind an opaque renewal credential.
// IsRevoked only ever moves from false to true; rows are removed by the expiry sweep.
type RefreshToken struct {
	Base `bson:",inline"`

	UserID    string    `json:"user_id"    gorm:"type:char(36);index;not null" bson:"userId"`
	Token     string    `json:"-"          gorm:"size:64;uniqueIndex;not null"  bson:"token"`
	IsRevoked bool      `json:"is_revoked" gorm:"index;not null;default:false"  bson:"isRevoked"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"                bson:"expiresAt"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// Active reports whether the record can still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
