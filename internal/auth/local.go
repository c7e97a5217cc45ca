package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{db: db}
}

// Authenticate checks email and password against the local password record.
// Unknown, disabled and deleted users as well as wrong passwords all yield ErrInvalidCredentials.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ? AND is_disabled = ?", models.CanonicalEmail(email), false, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug().Str("email", email).Msg("local login for unknown or inactive user")

		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	var record models.AuthRecord

	err = p.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", user.ID, models.AuthTypePassword).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug().Uint64("user_id", user.ID).Msg("local login for user without password")

		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query auth record: %w", err)
	}

	if !record.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// CreateUser provisions a local user with a password record and default permissions.
func (p *LocalProvider) CreateUser(
	ctx context.Context,
	email, name, password string,
	roles models.Roles,
) (*models.User, error) {
	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email = models.CanonicalEmail(email)

	var existing int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if existing > 0 {
		return nil, ErrUserExists
	}

	if roles == nil {
		roles = models.Roles{}
	}

	user := &models.User{
		Email:      email,
		Name:       name,
		Nickname:   models.Nickname(name, "User"),
		Avatar:     GenerateAvatar(email, name),
		Roles:      roles,
		AuthSource: models.AuthSourceInternal,
	}
	record := &models.AuthRecord{Type: models.AuthTypePassword, Secret: hash}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return provision(tx, user, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// SetPassword creates or replaces the password record of userID.
func (p *LocalProvider) SetPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return upsertRecord(p.db.WithContext(ctx), &models.AuthRecord{
		UserID: userID,
		Type:   models.AuthTypePassword,
		Secret: hash,
	}, "secret")
}
