package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrJWTSecretTooShort error if config auth.jwtsecret is shorter than 32 bytes.
	ErrJWTSecretTooShort = errors.New("toml config auth.jwtsecret must be at least 32 bytes")

	// ErrUnknownDBEngine error if config db.gormengine is not one of mysql, postgres or sqlite.
	ErrUnknownDBEngine = errors.New("toml config db.gormengine is not supported")

	// ErrNilConfig error if a component is started without configuration.
	ErrNilConfig = errors.New("config is nil")
)
