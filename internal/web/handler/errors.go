package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/directory"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Fields  []ErrorResponse `json:"fields,omitempty"`
}

var statusByError = []struct { //nolint:gochecknoglobals
	err    error
	status int
}{
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized},
	{auth.ErrInvalidChallenge, fiber.StatusUnauthorized},
	{auth.ErrInvalidTwoFactorCode, fiber.StatusUnauthorized},
	{auth.ErrInvalidScope, fiber.StatusForbidden},
	{auth.ErrAccountDisabled, fiber.StatusForbidden},
	{auth.ErrNoLocalAccount, fiber.StatusForbidden},
	{auth.ErrUserExists, fiber.StatusConflict},
	{auth.ErrInvalidExpiry, fiber.StatusBadRequest},
	{auth.ErrTwoFactorNotEnrolled, fiber.StatusBadRequest},
	{auth.ErrUserNotFound, fiber.StatusNotFound},
	{auth.ErrSSOMissingEmail, fiber.StatusBadRequest},
	{auth.ErrSSOInvalidEmail, fiber.StatusBadRequest},
	{directory.ErrConfiguration, fiber.StatusBadRequest},
	{directory.ErrDisabled, fiber.StatusBadRequest},
	{directory.ErrIdentity, fiber.StatusBadRequest},
	{directory.ErrNoServers, fiber.StatusBadGateway},
	{directory.ErrConnection, fiber.StatusBadGateway},
}

// StatusFor maps an error onto the HTTP status it is reported with.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}

	return fiber.StatusInternalServerError
}

// ErrorHandler renders errors returned by handlers as ErrorBody.
// Internal failures are logged and reported without detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	body := ErrorBody{Error: ErrorDetail{Code: status, Message: err.Error()}}

	var ve *ValidationError
	if errors.As(err, &ve) {
		body.Error.Fields = ve.Fields
	}

	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		body.Error.Message = fiber.ErrInternalServerError.Message
	}

	return c.Status(status).JSON(body)
}
