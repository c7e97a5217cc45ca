package models

import "time"

// Visibility controls which records a user can see.
type Visibility string

const (
	// VisibilityAll grants visibility of every user's records.
	VisibilityAll Visibility = "all"
	// VisibilityUser restricts visibility to the user's own records.
	VisibilityUser Visibility = "user"
)

// PermissionManage is the default access level of newly provisioned users.
const PermissionManage = "manage"

// UserPermission holds the default permission set of a user.
type UserPermission struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID references the owning user.
	UserID uint64 `gorm:"uniqueIndex;not null"`
	// Visibility is "all" for administrators and "user" otherwise.
	Visibility Visibility `gorm:"type:varchar(10);not null;default:'user'"`
	// Access is the access level granted on the user's own records.
	Access    string `gorm:"size:20;not null;default:'manage'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the UserPermission model.
func (UserPermission) TableName() string {
	return "user_permission"
}

// VisibilityFor returns the default visibility for a user with or without admin rights.
func VisibilityFor(admin bool) Visibility {
	if admin {
		return VisibilityAll
	}

	return VisibilityUser
}
