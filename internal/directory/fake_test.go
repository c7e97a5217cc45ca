package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

var errInvalidCredentials = ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))

// fakeServer scripts the behaviour of one endpoint.
type fakeServer struct {
	dialErr   error
	passwords map[string]string
	search    func(req SearchRequest) ([]*ldap.Entry, error)
}

type fakeSession struct {
	server *fakeServer
	url    string
	binds  []string
	closed int
}

func (s *fakeSession) Bind(dn, secret string) error {
	s.binds = append(s.binds, dn)

	if pw, ok := s.server.passwords[dn]; ok && pw == secret {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrBind, dn, errInvalidCredentials)
}

func (s *fakeSession) Search(req SearchRequest) ([]*ldap.Entry, error) {
	if s.server.search == nil {
		return nil, nil
	}

	return s.server.search(req)
}

func (s *fakeSession) Close() {
	s.closed++
}

type fakeDialer struct {
	mu       sync.Mutex
	servers  map[string]*fakeServer
	dialed   []string
	sessions []*fakeSession
}

func newFakeDialer(servers map[string]*fakeServer) *fakeDialer {
	return &fakeDialer{servers: servers}
}

func (d *fakeDialer) Dial(_ context.Context, endpoint string, _ Config) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dialed = append(d.dialed, endpoint)

	srv, ok := d.servers[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown endpoint", ErrConnection, endpoint)
	}

	if srv.dialErr != nil {
		return nil, srv.dialErr
	}

	sess := &fakeSession{server: srv, url: endpoint}
	d.sessions = append(d.sessions, sess)

	return sess, nil
}

func (d *fakeDialer) sessionsFor(endpoint string) []*fakeSession {
	var out []*fakeSession

	for _, s := range d.sessions {
		if s.url == endpoint {
			out = append(out, s)
		}
	}

	return out
}

type staticProvider struct {
	cfg Config
	err error
}

func (p staticProvider) Load(context.Context) (Config, error) {
	return p.cfg, p.err
}

func enabledConfig(mutate func(c *Config)) Config {
	c := DefaultConfig()
	c.Enabled = true
	c.AuthMode = AuthModeLDAPOnly
	c.BaseDN = "ou=people,dc=example,dc=org"

	if mutate != nil {
		mutate(&c)
	}

	return c
}

func withServiceAccount(c *Config) {
	c.BindDN = "cn=svc,dc=example,dc=org"
	c.BindPassword = "svc-secret"
}

func userEntry(dn string, attrs map[string][]string) *ldap.Entry {
	return ldap.NewEntry(dn, attrs)
}
