package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// TestResult is the outcome of a connection test.
type TestResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EntriesFound    int    `json:"entries_found,omitempty"`
	ConnectedServer string `json:"connected_server,omitempty"`
}

// StatusResult is the outcome of a connection status probe.
type StatusResult struct {
	Connected       bool   `json:"connected"`
	Message         string `json:"message"`
	ConnectedServer string `json:"connected_server,omitempty"`
	TotalServers    int    `json:"total_servers,omitempty"`
}

// TestConnection checks reachability of cfg, which need not be stored yet.
// With a service account the base DN is probed with a base-scope search.
func (d *Directory) TestConnection(ctx context.Context, cfg Config) TestResult {
	total := len(cfg.Candidates())

	if !cfg.HasServiceAccount() {
		return TestResult{
			Success: true,
			Message: fmt.Sprintf(
				"LDAP configured with %d server(s) (no service account configured for search test).", total),
		}
	}

	sess, server, err := d.connector.Connect(ctx, cfg)
	if err != nil {
		return TestResult{Message: "LDAP connection failed: " + err.Error()}
	}
	defer sess.Close()

	raw, err := sess.Search(SearchRequest{
		BaseDN:     cfg.BaseDN,
		Scope:      ldap.ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: []string{"dn"},
		SizeLimit:  1,
	})
	if err != nil {
		return TestResult{Message: "LDAP connection failed: " + err.Error()}
	}

	info := ""
	if total > 1 {
		info = fmt.Sprintf(" (connected to %s, %d servers configured)", server, total)
	}

	return TestResult{
		Success: true,
		Message: fmt.Sprintf(
			"Successfully connected and bound to LDAP server%s. Base DN %q is accessible.", info, cfg.BaseDN),
		EntriesFound:    len(raw),
		ConnectedServer: server,
	}
}

// Status reports whether the stored configuration can reach a server with
// the service account.
func (d *Directory) Status(ctx context.Context) StatusResult {
	cfg, err := d.enabledConfig(ctx)
	if errors.Is(err, ErrDisabled) {
		return StatusResult{Message: "LDAP is not enabled"}
	}

	if err != nil {
		return StatusResult{Message: "Connection failed: " + err.Error()}
	}

	if !cfg.HasServiceAccount() {
		return StatusResult{Message: "No service account configured"}
	}

	sess, server, err := d.connector.Connect(ctx, cfg)
	if err != nil {
		return StatusResult{Message: "Connection failed: " + err.Error()}
	}

	sess.Close()

	total := len(cfg.Candidates())

	info := ""
	if total > 1 {
		info = fmt.Sprintf(" (%s, %d servers configured)", server, total)
	}

	return StatusResult{
		Connected:       true,
		Message:         "Connected to LDAP server" + info,
		ConnectedServer: server,
		TotalServers:    total,
	}
}

// SearchAll returns the identities of every entry matching the search filter
// with the login placeholder replaced by a wildcard. Entries without an
// email are skipped.
func (d *Directory) SearchAll(ctx context.Context) ([]Identity, error) {
	cfg, err := d.enabledConfig(ctx)
	if err != nil {
		return nil, err
	}

	if !cfg.HasServiceAccount() {
		return nil, fmt.Errorf("%w: service account (bind DN) is required for user sync", ErrConfiguration)
	}

	sess, _, err := d.connector.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	filter := substitute(cfg.searchFilter(fallbackSearchFilter), "*")
	log.Info().Str("filter", filter).Msg("searching all LDAP users")

	entries, err := searchUsers(sess, cfg, filter, true)
	if err != nil {
		return nil, err
	}

	out := make([]Identity, 0, len(entries))

	for _, e := range entries {
		id, errResolve := Resolve(e, cfg)
		if errResolve != nil {
			log.Warn().Str("dn", orDefault(e.DN, "unknown")).Msg("skipping LDAP entry without valid email")

			continue
		}

		out = append(out, *id)
	}

	return out, nil
}

// IsInvalidCredentials reports whether err carries the invalid credentials result code.
func IsInvalidCredentials(err error) bool {
	var lerr *ldap.Error

	return errors.As(err, &lerr) && lerr.ResultCode == ldap.LDAPResultInvalidCredentials
}
