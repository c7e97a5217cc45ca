package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

// pageSize is the paging control size used for bulk searches.
const pageSize = 500

// SearchRequest describes a single directory search.
type SearchRequest struct {
	BaseDN     string
	Scope      int
	Filter     string
	Attributes []string
	SizeLimit  int
	// Paged requests the results in pages of pageSize entries.
	Paged bool
}

// Session is one transport connection to one directory endpoint.
type Session interface {
	// Bind authenticates the connection as dn.
	Bind(dn, secret string) error
	// Search returns every matching entry once the search has completed.
	Search(req SearchRequest) ([]*ldap.Entry, error)
	// Close unbinds and tears the connection down. It never fails and may be called twice.
	Close()
}

// Dialer opens sessions to endpoints.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, cfg Config) (Session, error)
}

// LDAPDialer dials real directory servers.
type LDAPDialer struct{}

// Dial connects to endpoint honoring the TLS and timeout settings of cfg.
func (LDAPDialer) Dial(ctx context.Context, endpoint string, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, endpoint, err)
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: !cfg.VerifyTLS(), //nolint:gosec // operator choice
		ServerName:         serverName(endpoint),
	}

	opts := []ldap.DialOpt{ldap.DialWithTLSConfig(tlsConfig)}
	if d := cfg.connectTimeout(); d > 0 {
		opts = append(opts, ldap.DialWithDialer(&net.Dialer{Timeout: d}))
	}

	conn, err := ldap.DialURL(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, endpoint, err)
	}

	if cfg.UseTLS && strings.HasPrefix(strings.ToLower(endpoint), "ldap://") {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			_ = conn.Close()

			return nil, fmt.Errorf("%w: %s: failed to start TLS: %w", ErrConnection, endpoint, errStartTLS)
		}
	}

	if d := cfg.searchTimeout(); d > 0 {
		conn.SetTimeout(d)
	}

	return &ldapSession{conn: conn, timeLimit: int(cfg.searchTimeout().Seconds())}, nil
}

func serverName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}

	return u.Hostname()
}

type ldapSession struct {
	conn      *ldap.Conn
	timeLimit int
	once      sync.Once
}

func (s *ldapSession) Bind(dn, secret string) error {
	if err := s.conn.Bind(dn, secret); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, dn, err)
	}

	return nil
}

func (s *ldapSession) Search(req SearchRequest) ([]*ldap.Entry, error) {
	sr := ldap.NewSearchRequest(
		req.BaseDN,
		req.Scope,
		ldap.NeverDerefAliases,
		req.SizeLimit,
		s.timeLimit,
		false,
		req.Filter,
		req.Attributes,
		nil,
	)

	var (
		res *ldap.SearchResult
		err error
	)

	if req.Paged {
		res, err = s.conn.SearchWithPaging(sr, pageSize)
	} else {
		res, err = s.conn.Search(sr)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSearch, req.Filter, err)
	}

	return res.Entries, nil
}

func (s *ldapSession) Close() {
	s.once.Do(func() {
		_ = s.conn.Unbind()
		_ = s.conn.Close()
	})
}
