package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// AuthType identifies the authentication method an AuthRecord belongs to.
type AuthType string

const (
	// AuthTypePassword stores an argon2id password hash.
	AuthTypePassword AuthType = "password"
	// AuthTypeLDAP records directory logins and the last seen directory groups.
	AuthTypeLDAP AuthType = "ldap"
	// AuthTypeSSO records trusted-proxy logins and the last seen proxy groups.
	AuthTypeSSO AuthType = "sso"
)

const (
	// SecretLDAP is the placeholder secret of directory auth records; no password is stored.
	SecretLDAP = "ldap-authenticated"
	// SecretSSO is the placeholder secret of SSO auth records.
	SecretSSO = "sso-authenticated"
)

// AuthRecord is a per-user, per-method authentication record.
// A user has at most one record per method.
type AuthRecord struct {
	// ID is the unique identifier for the record.
	ID uint64 `gorm:"primaryKey"`
	// UserID references the owning user.
	UserID uint64 `gorm:"uniqueIndex:idx_auth_user_type;not null"`
	// Type is the authentication method.
	Type AuthType `gorm:"uniqueIndex:idx_auth_user_type;type:varchar(20);not null"`
	// Secret holds the password hash for password records and a placeholder otherwise.
	Secret string `gorm:"size:255"`
	// Meta carries method specific data such as group memberships.
	Meta datatypes.JSON
	// CreatedAt is the timestamp when the record was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the record was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AuthRecord model.
func (AuthRecord) TableName() string {
	return "auth"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// VerifyPassword verifies a plaintext password against the stored hash.
// Records of other types never verify.
func (a *AuthRecord) VerifyPassword(password string) bool {
	if a.Type != AuthTypePassword || a.Secret == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, a.Secret)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", a.UserID).Msg("failed to verify password")

		return false
	}

	return match
}
