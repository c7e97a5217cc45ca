// Package models contains database model definitions.
package models

// Setting is a named JSON document stored in the settings table.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100;not null"`
	Value []byte `gorm:"type:blob"`
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}

// All returns every model managed by the schema migration.
func All() []any {
	return []any{&User{}, &AuthRecord{}, &UserPermission{}, &TwoFactor{}, &Setting{}}
}
