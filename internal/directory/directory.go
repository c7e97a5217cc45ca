// Package directory authenticates users against LDAP servers and resolves
// their identity and group membership.
//
// Sessions are opened and released within a single call; nothing is cached or
// pooled across calls. Endpoints are tried sequentially in priority order.
package directory

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

var placeholderPattern = map[string]*regexp.Regexp{ //nolint:gochecknoglobals
	"USERNAME": regexp.MustCompile(`(?i)\{\{USERNAME\}\}`),
	"EMAIL":    regexp.MustCompile(`(?i)\{\{EMAIL\}\}`),
}

// Directory is the entry point for all directory operations.
type Directory struct {
	provider  Provider
	dialer    Dialer
	connector *Connector
}

// New creates a Directory reading its configuration from provider.
func New(provider Provider, dialer Dialer) *Directory {
	if dialer == nil {
		dialer = LDAPDialer{}
	}

	return &Directory{
		provider:  provider,
		dialer:    dialer,
		connector: NewConnector(dialer),
	}
}

// Config returns the current configuration.
func (d *Directory) Config(ctx context.Context) (Config, error) {
	return d.provider.Load(ctx)
}

// enabledConfig loads the configuration and fails with ErrDisabled when it is switched off.
func (d *Directory) enabledConfig(ctx context.Context) (Config, error) {
	cfg, err := d.provider.Load(ctx)
	if err != nil {
		return Config{}, err
	}

	if !cfg.Enabled {
		return Config{}, ErrDisabled
	}

	return cfg, nil
}

// substitute replaces the {{USERNAME}} and {{EMAIL}} placeholders case-insensitively.
func substitute(template, value string) string {
	out := template
	for _, re := range placeholderPattern {
		out = re.ReplaceAllLiteralString(out, value)
	}

	return out
}

// userFilter builds a search filter with an escaped login name.
func userFilter(template, username string) string {
	return substitute(template, ldap.EscapeFilter(username))
}

// searchUsers runs a subtree user search and returns the flattened results.
func searchUsers(sess Session, cfg Config, filter string, paged bool) ([]Entry, error) {
	raw, err := sess.Search(SearchRequest{
		BaseDN:     cfg.BaseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     filter,
		Attributes: attributes(cfg),
		Paged:      paged,
	})
	if err != nil {
		return nil, err
	}

	return FlattenAll(raw), nil
}

// Authenticate verifies username and password against the directory and
// returns the resolved identity.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	cfg, err := d.enabledConfig(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.HasServiceAccount() {
		return d.authenticateWithServiceAccount(ctx, cfg, username, password)
	}

	return d.authenticateDirect(ctx, cfg, username, password)
}

// authenticateWithServiceAccount looks the user up with the service account
// and confirms the password with a bind on a fresh session.
func (d *Directory) authenticateWithServiceAccount(
	ctx context.Context,
	cfg Config,
	username, password string,
) (*Identity, error) {
	sess, server, err := d.connector.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	filter := userFilter(cfg.searchFilter(DefaultSearchFilter), username)
	log.Debug().Str("server", server).Str("filter", filter).Msg("searching LDAP user")

	entries, err := searchUsers(sess, cfg, filter, false)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	entry := entries[0]
	if entry.DN == "" {
		return nil, fmt.Errorf("%w: entry without DN", ErrNotFound)
	}

	userSess, err := d.dialer.Dial(ctx, cfg.defaultURL(), cfg)
	if err != nil {
		return nil, err
	}
	defer userSess.Close()

	if err = userSess.Bind(entry.DN, password); err != nil {
		return nil, err
	}

	return Resolve(entry, cfg)
}

// authenticateDirect binds as the templated user DN on each candidate in turn.
func (d *Directory) authenticateDirect(
	ctx context.Context,
	cfg Config,
	username, password string,
) (*Identity, error) {
	if cfg.UserDNTemplate == "" {
		return nil, fmt.Errorf("%w: no service account or user DN template configured", ErrConfiguration)
	}

	userDN := substitute(cfg.UserDNTemplate, ldap.EscapeDN(username))
	filter := userFilter(cfg.searchFilter(fallbackSearchFilter), username)

	var lastErr error

	for _, cand := range cfg.Candidates() {
		id, err := d.directBindOn(ctx, cfg, cand.URL, userDN, password, filter)
		if err == nil {
			return id, nil
		}

		log.Warn().Err(err).Str("server", cand.URL).Msg("LDAP server failed during authenticate")

		lastErr = err
	}

	if lastErr == nil {
		return nil, ErrNoServers
	}

	return nil, lastErr
}

func (d *Directory) directBindOn(
	ctx context.Context,
	cfg Config,
	endpoint, userDN, password, filter string,
) (*Identity, error) {
	sess, err := d.dialer.Dial(ctx, endpoint, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err = sess.Bind(userDN, password); err != nil {
		return nil, err
	}

	entries, err := searchUsers(sess, cfg, filter, false)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	return Resolve(entries[0], cfg)
}

// VerifyCredentials reports whether username and password authenticate.
func (d *Directory) VerifyCredentials(ctx context.Context, username, password string) bool {
	_, err := d.Authenticate(ctx, username, password)

	return err == nil
}
