package models

import (
	"slices"
	"strings"
	"time"
)

// AuthSource represents the authentication source that last signed a user in.
type AuthSource string

const (
	// AuthSourceInternal indicates the user authenticates with a locally stored password.
	AuthSourceInternal AuthSource = "internal"
	// AuthSourceLDAP indicates the user was provisioned or last updated by the directory.
	AuthSourceLDAP AuthSource = "ldap"
	// AuthSourceSSO indicates the user was provisioned by a trusted reverse proxy.
	AuthSourceSSO AuthSource = "sso"
)

// RoleAdmin is the role granting administrative scope.
const RoleAdmin = "admin"

// Roles is the set of role names held by a user, stored as a JSON array.
type Roles []string

// Has reports whether the role set contains role.
func (r Roles) Has(role string) bool {
	return slices.Contains(r, role)
}

// With returns a copy of the role set with role added.
func (r Roles) With(role string) Roles {
	if r.Has(role) {
		return slices.Clone(r)
	}

	return append(slices.Clone(r), role)
}

// Without returns a copy of the role set with every occurrence of role removed.
func (r Roles) Without(role string) Roles {
	out := make(Roles, 0, len(r))

	for _, v := range r {
		if v != role {
			out = append(out, v)
		}
	}

	return out
}

// User represents a local user account.
// Directory and SSO identities are reconciled onto users keyed by their canonical email.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Email is the canonical (lower-cased, trimmed) email address.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// Name is the display name.
	Name string `gorm:"size:255"`
	// Nickname is the first token of the display name.
	Nickname string `gorm:"size:100"`
	// Avatar is a data URI or URL for the user's picture.
	Avatar string `gorm:"type:text"`
	// Roles is the set of roles held by the user.
	Roles Roles `gorm:"serializer:json;type:text"`
	// AuthSource indicates how this user last authenticated.
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'internal'"`
	// IsDisabled blocks every login method when set.
	IsDisabled bool `gorm:"not null;default:false"`
	// IsDeleted hides the user from lookups.
	IsDeleted bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Roles.Has(RoleAdmin)
}

// CanonicalEmail lower-cases and trims an email address.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Nickname derives a nickname from the first token of name, or fallback when name is blank.
func Nickname(name, fallback string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}

	return fallback
}
