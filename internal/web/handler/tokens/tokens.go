// Package tokens serves the token endpoints: password login, refresh, SSO and second factor.
package tokens

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/web/handler"
	authmw "github.com/dirauth/dirauth/internal/web/middleware/auth"
)

const (
	// Path is the route group of the token endpoints.
	Path = handler.APIPrefix + "/tokens"
)

// TwoFactorRequest exchanges a challenge token and a TOTP code for a full token.
type TwoFactorRequest struct {
	ChallengeToken string `json:"challenge_token" validate:"required"`
	Code           string `json:"code"            validate:"required,numeric,len=6"`
	Expiry         string `json:"expiry"`
}

// Service is the token handler service.
type Service struct {
	handler.Service
	auth      *auth.Service
	validator handler.XValidator
}

// Handler is the token handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the token routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil || env.Auth == nil {
		return errors.New(handler.ErrNilAppEnvMsg)
	}

	s.auth = env.Auth
	s.validator = handler.NewValidator()

	app.Route(Path, func(router fiber.Router) {
		router.Post(handler.RootPath, s.Login)
		router.Get(handler.RootPath, authmw.Bearer(s.auth), s.Refresh)
		router.Get("/sso", s.SSO)
		router.Post("/2fa", s.TwoFactor)
	})

	return nil
}

// Login handles POST /api/tokens.
func (s *Service) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := s.validator.Bind(c, &req); err != nil {
		return err
	}

	res, err := s.auth.Login(c.UserContext(), req)
	if err != nil {
		log.Debug().Err(err).Str("identity", req.Identity).Msg("login failed")

		return err
	}

	return c.JSON(res)
}

// Refresh handles GET /api/tokens?expiry=&scope=.
func (s *Service) Refresh(c *fiber.Ctx) error {
	tok, err := s.auth.Refresh(authmw.Claims(c), c.Query("expiry"), c.Query("scope"))
	if err != nil {
		return err
	}

	return c.JSON(tok)
}

// SSO handles GET /api/tokens/sso using the trusted proxy headers.
// Headers from peers outside Webserver.TrustedProxies are ignored.
func (s *Service) SSO(c *fiber.Ctx) error {
	var h auth.SSOHeaders
	if c.IsProxyTrusted() {
		h = auth.HeadersFrom(func(key string) string { return c.Get(key) })
	} else {
		log.Warn().Str("ip", c.Context().RemoteIP().String()).Msg("ignoring SSO headers from untrusted peer")
	}

	log.Debug().
		Str("email", h.Email).
		Str("user", h.User).
		Str("groups", h.Groups).
		Msg("SSO headers received")

	res, err := s.auth.SSO(c.UserContext(), h)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

// TwoFactor handles POST /api/tokens/2fa.
func (s *Service) TwoFactor(c *fiber.Ctx) error {
	var req TwoFactorRequest
	if err := s.validator.Bind(c, &req); err != nil {
		return err
	}

	tok, err := s.auth.VerifyTwoFactor(c.UserContext(), req.ChallengeToken, req.Code, req.Expiry)
	if err != nil {
		return err
	}

	return c.JSON(tok)
}
