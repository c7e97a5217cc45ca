package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection is returned when no directory server could be reached.
	ErrConnection = errors.New("directory connection failed")

	// ErrNoServers is returned when the configuration yields no server candidates.
	ErrNoServers = fmt.Errorf("%w: no LDAP servers available", ErrConnection)

	// ErrBind is returned when a server rejects the credentials of a bind.
	ErrBind = errors.New("directory bind failed")

	// ErrSearch is returned when a search completes with a non-success result.
	ErrSearch = errors.New("directory search failed")

	// ErrNotFound is returned when no directory entry matches the login name.
	ErrNotFound = errors.New("user not found in LDAP directory")

	// ErrIdentity is returned when an entry lacks a usable email attribute.
	ErrIdentity = errors.New("LDAP user entry does not have an email attribute")

	// ErrConfiguration is returned when a required directory setting is missing.
	ErrConfiguration = errors.New("invalid LDAP configuration")

	// ErrDisabled is returned when directory authentication is switched off.
	ErrDisabled = errors.New("LDAP authentication is not enabled")
)
