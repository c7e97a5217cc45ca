// Package setting provides access to named settings documents.
package setting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/db/models"
)

const nameQueryPattern = "name = ?"

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to read or write a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func check(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	return nil
}

// Get retrieves a setting by its name.
func Get(ctx context.Context, db *gorm.DB, name string) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var setting models.Setting

	result := db.WithContext(ctx).Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// Set creates or updates a setting by name.
func Set(ctx context.Context, db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if err := check(db, name); err != nil {
		return nil, err
	}

	var setting models.Setting

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(nameQueryPattern, name).First(&setting)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			setting = models.Setting{Name: name, Value: value}

			return tx.Create(&setting).Error
		case result.Error != nil:
			return result.Error
		}

		setting.Value = value

		return tx.Save(&setting).Error
	})
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// Delete removes a setting by name.
func Delete(ctx context.Context, db *gorm.DB, name string) error {
	if err := check(db, name); err != nil {
		return err
	}

	result := db.WithContext(ctx).Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

// GetJSON decodes the named setting into v.
func GetJSON(ctx context.Context, db *gorm.DB, name string, v any) error {
	s, err := Get(ctx, db, name)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(s.Value, v); err != nil {
		return fmt.Errorf("failed to decode setting %q: %w", name, err)
	}

	return nil
}

// SetJSON encodes v and stores it under name.
func SetJSON(ctx context.Context, db *gorm.DB, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", name, err)
	}

	_, err = Set(ctx, db, name, data)

	return err
}
