package models

import (
	"time"
)

// TokenRecord is one merchant's OAuth grant. Exactly one row exists per
// merchant; every authorize event fully replaces it.
type TokenRecord struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	MerchantID string `gorm:"uniqueIndex;not null" json:"merchant_id"`

	// AccessToken is a bearer credential. It must never appear in logs or
	// in non-privileged query responses.
	AccessToken  string `gorm:"not null" json:"-"`
	RefreshToken string `json:"-"`

	Scope     string `gorm:"not null" json:"scope"`
	TokenType string `gorm:"not null;default:'Bearer'" json:"token_type"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports logical expiry. Expired records are treated as absent by
// read paths but stay on disk until an explicit uninstall.
func (t *TokenRecord) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsCorrupt reports whether the stored row is unusable: a grant without a
// token value or expiry can only come from a bad write or manual edit.
func (t *TokenRecord) IsCorrupt() bool {
	return t.AccessToken == "" || t.ExpiresAt.IsZero()
}

// Grant is the credential set delivered by an authorize event, before
// normalization into a TokenRecord.
type Grant struct {
	AccessToken        string
	RefreshToken       string
	Scope              string
	TokenType          string
	ExpiresAtEpochSecs int64
}
