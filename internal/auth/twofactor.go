package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/db/models"
)

// TwoFactor manages TOTP enrolments.
type TwoFactor struct {
	db     *gorm.DB
	issuer string
}

// NewTwoFactor creates a TOTP manager; issuer labels generated keys.
func NewTwoFactor(db *gorm.DB, issuer string) *TwoFactor {
	return &TwoFactor{db: db, issuer: issuer}
}

func (t *TwoFactor) find(ctx context.Context, userID uint64) (*models.TwoFactor, error) {
	var tf models.TwoFactor

	err := t.db.WithContext(ctx).Where("user_id = ?", userID).First(&tf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil // absent enrolment
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query two-factor enrolment: %w", err)
	}

	return &tf, nil
}

// IsEnabled reports whether userID has a confirmed second factor.
func (t *TwoFactor) IsEnabled(ctx context.Context, userID uint64) (bool, error) {
	tf, err := t.find(ctx, userID)
	if err != nil {
		return false, err
	}

	return tf != nil && tf.Enabled, nil
}

// Verify checks code against the enabled enrolment of userID.
func (t *TwoFactor) Verify(ctx context.Context, userID uint64, code string) (bool, error) {
	tf, err := t.find(ctx, userID)
	if err != nil {
		return false, err
	}

	if tf == nil || !tf.Enabled {
		return false, nil
	}

	return totp.Validate(code, tf.Secret), nil
}

// Enroll generates a fresh secret for userID and stores it disabled until Enable confirms it.
func (t *TwoFactor) Enroll(ctx context.Context, userID uint64, account string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: t.issuer, AccountName: account})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	tf, err := t.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if tf == nil {
		tf = &models.TwoFactor{UserID: userID}
	}

	tf.Secret = key.Secret()
	tf.Enabled = false

	if err := t.db.WithContext(ctx).Save(tf).Error; err != nil {
		return nil, fmt.Errorf("failed to store two-factor enrolment: %w", err)
	}

	return key, nil
}

// Enable confirms a pending enrolment with a valid code.
func (t *TwoFactor) Enable(ctx context.Context, userID uint64, code string) error {
	tf, err := t.find(ctx, userID)
	if err != nil {
		return err
	}

	if tf == nil {
		return ErrTwoFactorNotEnrolled
	}

	if !totp.Validate(code, tf.Secret) {
		return ErrInvalidTwoFactorCode
	}

	return t.db.WithContext(ctx).Model(tf).Update("enabled", true).Error
}

// EnrollTwoFactor starts a TOTP enrolment for the active user with email.
func (s *Service) EnrollTwoFactor(ctx context.Context, email string) (*otp.Key, error) {
	user, err := s.activeUser(ctx, email)
	if err != nil {
		return nil, err
	}

	return s.twoFactor.Enroll(ctx, user.ID, user.Email)
}

// EnableTwoFactor confirms the pending enrolment of the user with email.
func (s *Service) EnableTwoFactor(ctx context.Context, email, code string) error {
	user, err := s.activeUser(ctx, email)
	if err != nil {
		return err
	}

	return s.twoFactor.Enable(ctx, user.ID, code)
}

func (s *Service) activeUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.reconciler.findUser(ctx, models.CanonicalEmail(email))
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}

	if user.IsDisabled {
		return nil, ErrAccountDisabled
	}

	return user, nil
}
