package config

import (
	"github.com/dirauth/dirauth/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool   // enable dev mode for development
	Title     string `default:"dirauth"`
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool     // disable recover middleware
	Port           int      // listening port for the webserver
	ShutDownTime   int      `default:"5"` // wait time for shutdown in seconds
	URL            string   // base url for the webserver
	ProxyHeader    string   // header carrying the client ip when running behind a proxy
	TrustedProxies []string // proxies allowed to set ProxyHeader and the SSO headers
}

// Auth holds token signing and bootstrap settings.
type Auth struct {
	JWTSecret       string // HMAC key, at least 32 bytes
	Issuer          string `default:"api"`
	DefaultExpiry   string `default:"1d"`
	ChallengeExpiry string `default:"5m"`

	// AdminEmail and AdminPassword seed the first administrator of an empty database.
	// An empty AdminPassword is replaced by a generated one that is logged once.
	AdminEmail    string `default:"admin@example.com"`
	AdminPassword string
}
