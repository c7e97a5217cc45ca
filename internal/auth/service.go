package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/directory"
)

// LoginRequest is a password login.
type LoginRequest struct {
	// Identity is an email for local logins and a username or email for directory logins.
	Identity string `json:"identity" validate:"required"`
	Secret   string `json:"secret"   validate:"required"`
	Scope    string `json:"scope"`
	Expiry   string `json:"expiry"`
}

// LoginResult is either a full token or a second factor challenge.
type LoginResult struct {
	*Token

	RequiresTwoFactor bool   `json:"requires_2fa,omitempty"`
	ChallengeToken    string `json:"challenge_token,omitempty"`
}

// SSOResult describes trusted header authentication to the client.
type SSOResult struct {
	*Token

	Available     bool    `json:"sso_available"`
	Authenticated *bool   `json:"authenticated,omitempty"`
	LogoutURL     *string `json:"sso_logout_url,omitempty"`
}

// Service orchestrates logins across the local store, the directory and SSO headers.
type Service struct {
	db         *gorm.DB
	dir        Directory
	local      *LocalProvider
	reconciler *Reconciler
	twoFactor  *TwoFactor
	issuer     *Issuer
	cfg        config.Auth
}

// NewService wires the login orchestrator.
func NewService(db *gorm.DB, dir Directory, cfg config.Auth) *Service {
	return &Service{
		db:         db,
		dir:        dir,
		local:      NewLocalProvider(db),
		reconciler: NewReconciler(db, dir),
		twoFactor:  NewTwoFactor(db, cfg.Issuer),
		issuer:     NewIssuer(cfg.JWTSecret, cfg.Issuer),
		cfg:        cfg,
	}
}

// Local returns the local password provider.
func (s *Service) Local() *LocalProvider { return s.local }

// TwoFactor returns the TOTP manager.
func (s *Service) TwoFactor() *TwoFactor { return s.twoFactor }

// Issuer returns the token issuer.
func (s *Service) Issuer() *Issuer { return s.issuer }

// Login authenticates a password login according to the configured auth mode.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	cfg, err := s.dir.Config(ctx)
	if err != nil {
		return nil, err
	}

	var user *models.User

	switch cfg.AuthMode {
	case directory.AuthModeLDAPOnly:
		user, err = s.directoryLogin(ctx, cfg, req)
	case directory.AuthModeInternalLDAP:
		user, err = s.local.Authenticate(ctx, req.Identity, req.Secret)
		observeLogin(methodLocal, err)

		if err != nil {
			localErr := err

			user, err = s.directoryLogin(ctx, cfg, req)
			if err != nil {
				log.Debug().Err(err).Msg("LDAP auth fallback failed")

				return nil, localErr
			}
		}
	default:
		user, err = s.local.Authenticate(ctx, req.Identity, req.Secret)
		observeLogin(methodLocal, err)
	}

	if err != nil {
		return nil, err
	}

	return s.grant(ctx, user, req.Scope, req.Expiry)
}

// directoryLogin authenticates against the directory and reconciles the identity.
// Credential level failures collapse into ErrInvalidCredentials.
func (s *Service) directoryLogin(ctx context.Context, cfg directory.Config, req LoginRequest) (*models.User, error) {
	id, err := s.dir.Authenticate(ctx, req.Identity, req.Secret)
	if err != nil {
		observeLogin(methodDirectory, err)
		log.Debug().Err(err).Str("identity", req.Identity).Msg("LDAP authentication failed")

		if errors.Is(err, directory.ErrBind) || errors.Is(err, directory.ErrSearch) ||
			errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	res, err := s.reconciler.ReconcileDirectory(ctx, cfg, id, false)
	observeLogin(methodDirectory, err)

	if err != nil {
		return nil, err
	}

	return res.User, nil
}

// grant checks the requested scope and issues either a challenge or a full token.
func (s *Service) grant(ctx context.Context, user *models.User, scope, expiry string) (*LoginResult, error) {
	if scope == "" {
		scope = ScopeUser
	}

	if err := CheckScope(user, scope); err != nil {
		return nil, err
	}

	enabled, err := s.twoFactor.IsEnabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if enabled {
		challenge, err := s.issuer.Issue(user.ID, []string{ScopeChallenge}, s.challengeExpiry())
		if err != nil {
			return nil, err
		}

		loginsTotal.WithLabelValues(methodTwoFactor, outcomeChallenge).Inc()

		return &LoginResult{RequiresTwoFactor: true, ChallengeToken: challenge.Token}, nil
	}

	tok, err := s.issuer.Issue(user.ID, []string{scope}, s.expiry(expiry))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: tok}, nil
}

// VerifyTwoFactor exchanges a challenge token and a valid TOTP code for a full token.
func (s *Service) VerifyTwoFactor(ctx context.Context, challengeToken, code, expiry string) (*Token, error) {
	tok, err := s.verifyTwoFactor(ctx, challengeToken, code, expiry)
	observeLogin(methodTwoFactor, err)

	return tok, err
}

func (s *Service) verifyTwoFactor(ctx context.Context, challengeToken, code, expiry string) (*Token, error) {
	claims, err := s.issuer.Parse(challengeToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChallenge, err)
	}

	if len(claims.Scope) == 0 || claims.Scope[0] != ScopeChallenge || claims.UserID == 0 {
		return nil, ErrInvalidChallenge
	}

	ok, err := s.twoFactor.Verify(ctx, claims.UserID, code)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrInvalidTwoFactorCode
	}

	return s.issuer.Issue(claims.UserID, []string{ScopeUser}, s.expiry(expiry))
}

// SSO authenticates trusted proxy headers. It never asks for a second factor.
// SSO is unavailable unless both the directory and SSO are enabled.
func (s *Service) SSO(ctx context.Context, h SSOHeaders) (*SSOResult, error) {
	cfg, err := s.dir.Config(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.Enabled || !cfg.SSOEnabled {
		return &SSOResult{Available: false}, nil
	}

	logout := cfg.SSOLogoutURL
	authenticated := false

	if h.Email == "" {
		return &SSOResult{Available: true, Authenticated: &authenticated, LogoutURL: &logout}, nil
	}

	res, err := s.reconciler.ReconcileSSO(ctx, cfg, h)
	observeLogin(methodSSO, err)

	if err != nil {
		return nil, err
	}

	tok, err := s.issuer.Issue(res.User.ID, []string{ScopeUser}, DefaultExpiry)
	if err != nil {
		return nil, err
	}

	authenticated = true

	return &SSOResult{Token: tok, Available: true, Authenticated: &authenticated, LogoutURL: &logout}, nil
}

// Refresh re-issues a token for the holder of claims. Only admin tokens may
// switch scope, and service scopes are issued without a user.
func (s *Service) Refresh(claims *Claims, expiry, scope string) (*Token, error) {
	if claims == nil || claims.UserID == 0 || claims.HasScope(ScopeChallenge) {
		return nil, fmt.Errorf("%w: token contained invalid user data", ErrInvalidToken)
	}

	userID := claims.UserID
	scopes := slices.Clone(claims.Scope)

	if scope != "" && claims.HasScope(models.RoleAdmin) {
		scopes = []string{scope}

		if scope == ScopeJobBoard || scope == ScopeWorker {
			userID = 0
		}
	}

	return s.issuer.Issue(userID, scopes, s.expiry(expiry))
}

// Authorize verifies a bearer token. Challenge tokens are rejected.
func (s *Service) Authorize(raw string) (*Claims, error) {
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		return nil, err
	}

	if claims.HasScope(ScopeChallenge) {
		return nil, fmt.Errorf("%w: challenge token", ErrInvalidToken)
	}

	return claims, nil
}

// User returns the active local user claims were issued for.
func (s *Service) User(ctx context.Context, claims *Claims) (*models.User, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: token carries no user", ErrInvalidToken)
	}

	var user models.User

	err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", claims.UserID, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if user.IsDisabled {
		return nil, ErrAccountDisabled
	}

	return &user, nil
}

// CheckScope fails when a non-default scope is requested that the user does not hold as a role.
func CheckScope(user *models.User, scope string) error {
	if scope != ScopeUser && !user.Roles.Has(scope) {
		return fmt.Errorf("%w: %s", ErrInvalidScope, scope)
	}

	return nil
}

func (s *Service) expiry(expr string) string {
	switch {
	case expr != "":
		return expr
	case s.cfg.DefaultExpiry != "":
		return s.cfg.DefaultExpiry
	}

	return DefaultExpiry
}

func (s *Service) challengeExpiry() string {
	if s.cfg.ChallengeExpiry != "" {
		return s.cfg.ChallengeExpiry
	}

	return ChallengeExpiry
}
