// Package ldap serves the directory administration endpoints and the basic auth probe.
package ldap

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/db/controller/ldapconfig"
	"github.com/dirauth/dirauth/internal/directory"
	"github.com/dirauth/dirauth/internal/web/handler"
	authmw "github.com/dirauth/dirauth/internal/web/middleware/auth"
)

const (
	// Path is the route group of the directory endpoints.
	Path = handler.APIPrefix + "/ldap"

	// Realm is announced on failed basic auth probes.
	Realm = `Basic realm="LDAP Authentication"`
)

// ConfigResponse wraps the stored configuration the way it is persisted.
type ConfigResponse struct {
	ID   string           `json:"id"`
	Meta directory.Config `json:"meta"`
}

// Service is the directory handler service.
type Service struct {
	handler.Service
	auth      *auth.Service
	dir       *directory.Directory
	store     *ldapconfig.Store
	validator handler.XValidator
}

// Handler is the directory handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the directory routes. Everything but /auth requires an administrator token.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil || env.Auth == nil || env.Directory == nil || env.LDAPConfig == nil {
		return errors.New(handler.ErrNilAppEnvMsg)
	}

	s.auth = env.Auth
	s.dir = env.Directory
	s.store = env.LDAPConfig
	s.validator = handler.NewValidator()

	admin := []fiber.Handler{authmw.Bearer(s.auth), authmw.RequireAdmin(s.auth)}

	app.Route(Path, func(router fiber.Router) {
		router.Get("/auth", s.BasicAuth)
		router.Get("/config", append(admin, s.GetConfig)...)
		router.Put("/config", append(admin, s.PutConfig)...)
		router.Post("/test", append(admin, s.Test)...)
		router.Get("/status", append(admin, s.Status)...)
		router.Post("/sync", append(admin, s.Sync)...)
	})

	return nil
}

// GetConfig returns the stored configuration with the bind password masked.
func (s *Service) GetConfig(c *fiber.Ctx) error {
	cfg, err := s.store.Masked(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(ConfigResponse{ID: ldapconfig.SettingKey, Meta: cfg})
}

// PutConfig validates and stores a configuration.
func (s *Service) PutConfig(c *fiber.Ctx) error {
	var cfg directory.Config
	if err := s.validator.Bind(c, &cfg); err != nil {
		return err
	}

	saved, err := s.store.Update(c.UserContext(), cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("auth_mode", string(saved.AuthMode)).
		Bool("sso_enabled", saved.SSOEnabled).
		Msg("LDAP configuration updated")

	return c.JSON(ConfigResponse{ID: ldapconfig.SettingKey, Meta: saved})
}

// Test probes a configuration that need not be stored yet.
func (s *Service) Test(c *fiber.Ctx) error {
	var cfg directory.Config
	if err := s.validator.Bind(c, &cfg); err != nil {
		return err
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return err
	}

	cfg, err := s.store.ResolvePassword(c.UserContext(), cfg)
	if err != nil {
		return err
	}

	return c.JSON(s.dir.TestConnection(c.UserContext(), cfg))
}

// Status reports whether the stored configuration can connect.
func (s *Service) Status(c *fiber.Ctx) error {
	return c.JSON(s.dir.Status(c.UserContext()))
}

// Sync reconciles every directory user into the local store.
func (s *Service) Sync(c *fiber.Ctx) error {
	res, err := s.auth.Sync(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(res)
}

// BasicAuth verifies HTTP basic credentials against the directory, for use
// behind a reverse proxy auth_request.
func (s *Service) BasicAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)

	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return unauthorized(c, "Authentication required")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		log.Debug().Err(err).Msg("LDAP proxy auth header is not base64")

		return unauthorized(c, "Authentication failed")
	}

	username, password, _ := strings.Cut(string(decoded), ":")
	if username == "" || password == "" {
		return unauthorized(c, "Invalid credentials format")
	}

	if !s.dir.VerifyCredentials(c.UserContext(), username, password) {
		return unauthorized(c, "Invalid credentials")
	}

	return c.SendString("OK")
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, Realm)

	return c.Status(fiber.StatusUnauthorized).SendString(msg)
}
