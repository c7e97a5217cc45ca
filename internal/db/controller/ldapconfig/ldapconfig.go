// Package ldapconfig persists the directory configuration in the settings table.
package ldapconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/db/controller/setting"
	"github.com/dirauth/dirauth/internal/directory"
)

const (
	// SettingKey is the settings name the directory configuration is stored under.
	SettingKey = "ldap-auth"
	// Mask replaces the bind password in every configuration shown to operators.
	Mask = "********"
)

// Store loads and saves the directory configuration. It implements directory.Provider.
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
}

var _ directory.Provider = (*Store)(nil)

// New creates a store backed by db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, validate: validator.New()}
}

// Load returns the stored configuration with defaults applied, or the default
// template when nothing has been stored yet.
func (s *Store) Load(ctx context.Context) (directory.Config, error) {
	var cfg directory.Config

	err := setting.GetJSON(ctx, s.db, SettingKey, &cfg)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return directory.DefaultConfig(), nil
	}

	if err != nil {
		return directory.Config{}, err
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return directory.Config{}, err
	}

	return cfg, nil
}

// Masked returns the current configuration with the bind password masked.
func (s *Store) Masked(ctx context.Context) (directory.Config, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return directory.Config{}, err
	}

	return MaskPassword(cfg), nil
}

// ResolvePassword replaces a masked bind password with the stored one.
func (s *Store) ResolvePassword(ctx context.Context, cfg directory.Config) (directory.Config, error) {
	if cfg.BindPassword != Mask {
		return cfg, nil
	}

	stored, err := s.Load(ctx)
	if err != nil {
		return directory.Config{}, err
	}

	cfg.BindPassword = stored.BindPassword

	return cfg, nil
}

// Update validates and stores cfg and returns the stored value masked.
// The auth mode drives the enabled flag.
func (s *Store) Update(ctx context.Context, cfg directory.Config) (directory.Config, error) {
	if err := cfg.ApplyDefaults(); err != nil {
		return directory.Config{}, err
	}

	cfg.Enabled = cfg.AuthMode != directory.AuthModeInternal

	if err := s.Validate(cfg); err != nil {
		return directory.Config{}, err
	}

	cfg, err := s.ResolvePassword(ctx, cfg)
	if err != nil {
		return directory.Config{}, err
	}

	if err := setting.SetJSON(ctx, s.db, SettingKey, cfg); err != nil {
		return directory.Config{}, err
	}

	return MaskPassword(cfg), nil
}

// Validate checks field ranges and, for an enabled configuration, that an
// endpoint and a well formed base DN are present.
func (s *Store) Validate(cfg directory.Config) error {
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", directory.ErrConfiguration, err)
	}

	if !cfg.Enabled {
		return nil
	}

	if !cfg.HasEndpoint() {
		return fmt.Errorf("%w: LDAP host, URL, or at least one server is required", directory.ErrConfiguration)
	}

	if cfg.BaseDN == "" {
		return fmt.Errorf("%w: LDAP base DN is required", directory.ErrConfiguration)
	}

	if _, err := ldap.ParseDN(cfg.BaseDN); err != nil {
		return fmt.Errorf("%w: invalid base DN %q: %w", directory.ErrConfiguration, cfg.BaseDN, err)
	}

	return nil
}

// MaskPassword returns cfg with a non-empty bind password replaced by Mask.
func MaskPassword(cfg directory.Config) directory.Config {
	if cfg.BindPassword != "" {
		cfg.BindPassword = Mask
	}

	return cfg
}
