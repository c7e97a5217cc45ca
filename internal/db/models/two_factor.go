package models

import "time"

// TwoFactor holds a user's TOTP enrolment.
type TwoFactor struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID references the owning user.
	UserID uint64 `gorm:"uniqueIndex;not null"`
	// Secret is the base32 TOTP shared secret.
	Secret string `gorm:"size:64;not null"`
	// Enabled is set once the user confirmed enrolment with a valid code.
	Enabled   bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the TwoFactor model.
func (TwoFactor) TableName() string {
	return "user_2fa"
}
