package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// APIPrefix prefixes every JSON endpoint.
	APIPrefix = "/api"

	// ErrNilAppEnvMsg is used if the app or env pointer is nil.
	ErrNilAppEnvMsg = "app or env is nil"
)
