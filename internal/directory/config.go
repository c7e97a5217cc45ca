package directory

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// AuthMode selects which credential sources a password login consults.
type AuthMode string

const (
	// AuthModeInternal authenticates against local password records only.
	AuthModeInternal AuthMode = "internal"
	// AuthModeInternalLDAP tries local password records first, then the directory.
	AuthModeInternalLDAP AuthMode = "internal_ldap"
	// AuthModeLDAPOnly authenticates against the directory only.
	AuthModeLDAPOnly AuthMode = "ldap_only"
)

const (
	// DefaultPort is used for host based endpoints without an explicit port.
	DefaultPort = 389
	// DefaultPriority is the precedence of a server entry without a priority.
	DefaultPriority = 99
	// DefaultSearchFilter matches the login name against uid, mail and sAMAccountName.
	DefaultSearchFilter = "(|(uid={{USERNAME}})(mail={{USERNAME}})(sAMAccountName={{USERNAME}}))"

	// fallbackSearchFilter is used by direct bind and bulk search when no filter is stored.
	fallbackSearchFilter = "(|(uid={{USERNAME}})(mail={{USERNAME}}))"
)

// Server is one entry of a prioritized server list.
type Server struct {
	URL      string `json:"url,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"     validate:"gte=0,lte=65535"`
	Priority int    `json:"priority,omitempty" validate:"gte=0"`
}

// Config is the persisted directory configuration. Keys are snake_case only.
type Config struct {
	// Enabled switches directory and SSO authentication on.
	Enabled bool `json:"enabled"`
	// AuthMode decides how password logins are routed.
	AuthMode AuthMode `json:"auth_mode" default:"internal" validate:"omitempty,oneof=internal internal_ldap ldap_only"`

	// Host, Port and URL describe the legacy single endpoint.
	Host string `json:"host"`
	Port int    `json:"port" default:"389" validate:"gte=0,lte=65535"`
	URL  string `json:"url"`
	// Servers is the prioritized multi endpoint list. It wins over the legacy fields.
	Servers []Server `json:"servers" validate:"dive"`

	// UseTLS upgrades ldap:// connections with StartTLS.
	UseTLS bool `json:"use_tls"`
	// TLSVerify verifies server certificates. Nil means true.
	TLSVerify *bool `json:"tls_verify" default:"true"`

	// BindDN and BindPassword are the optional service account.
	BindDN       string `json:"bind_dn"`
	BindPassword string `json:"bind_password"`
	// BaseDN is the root of every user and group search.
	BaseDN string `json:"base_dn"`
	// UserDNTemplate is used for direct binds when no service account exists.
	UserDNTemplate string `json:"user_dn_template"`
	// SearchFilter may contain {{USERNAME}} and {{EMAIL}} placeholders.
	SearchFilter string `json:"search_filter" default:"(|(uid={{USERNAME}})(mail={{USERNAME}})(sAMAccountName={{USERNAME}}))"`

	EmailAttribute string `json:"email_attribute" default:"mail"`
	NameAttribute  string `json:"name_attribute" default:"displayName"`
	GroupAttribute string `json:"group_attribute" default:"memberOf"`

	// AdminGroup grants the admin role to its members.
	AdminGroup string `json:"admin_group"`
	// SyncAdminGroup allows revoking admin when the membership disappears.
	SyncAdminGroup bool `json:"sync_admin_group"`
	// AutoCreateUser provisions unknown users on first login. Nil means true.
	AutoCreateUser *bool `json:"auto_create_user" default:"true"`

	SSOEnabled     bool   `json:"sso_enabled"`
	SSOLogoutURL   string `json:"sso_logout_url"`
	SSOAdminEmails string `json:"sso_admin_emails"`

	// ConnectTimeout and SearchTimeout are milliseconds.
	ConnectTimeout int `json:"connect_timeout" default:"5000"  validate:"gte=0"`
	SearchTimeout  int `json:"search_timeout"  default:"10000" validate:"gte=0"`
}

// Provider supplies the current directory configuration.
type Provider interface {
	Load(ctx context.Context) (Config, error)
}

// Candidate is a resolved connection endpoint.
type Candidate struct {
	URL      string
	Priority int
}

// DefaultConfig returns the configuration template used when nothing is stored.
func DefaultConfig() Config {
	var c Config

	_ = c.ApplyDefaults()

	return c
}

// ApplyDefaults fills every unset field from its default tag.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to set directory defaults: %w", err)
	}

	return nil
}

// HasServiceAccount reports whether both bind DN and bind password are set.
func (c Config) HasServiceAccount() bool {
	return c.BindDN != "" && c.BindPassword != ""
}

// VerifyTLS reports whether server certificates must be verified.
func (c Config) VerifyTLS() bool {
	return c.TLSVerify == nil || *c.TLSVerify
}

// AutoCreate reports whether unknown users may be provisioned.
func (c Config) AutoCreate() bool {
	return c.AutoCreateUser == nil || *c.AutoCreateUser
}

// HasEndpoint reports whether any legacy or list endpoint is configured.
func (c Config) HasEndpoint() bool {
	return c.Host != "" || c.URL != "" || len(c.Servers) > 0
}

// AdminEmails returns the lower-cased SSO admin email allowlist.
func (c Config) AdminEmails() []string {
	var out []string

	for _, e := range strings.Split(c.SSOAdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}

	return out
}

func (c Config) connectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Millisecond
}

func (c Config) searchTimeout() time.Duration {
	return time.Duration(c.SearchTimeout) * time.Millisecond
}

func (c Config) searchFilter(fallback string) string {
	if c.SearchFilter == "" {
		return fallback
	}

	return c.SearchFilter
}

// Candidates resolves the ordered list of endpoints to try.
// A non-empty server list is filtered, stable-sorted by ascending priority
// and wins over the legacy host, port and url fields.
func (c Config) Candidates() []Candidate {
	out := make([]Candidate, 0, len(c.Servers))

	for _, s := range c.Servers {
		if s.URL == "" && s.Host == "" {
			continue
		}

		prio := s.Priority
		if prio == 0 {
			prio = DefaultPriority
		}

		u := s.URL
		if u == "" {
			u = hostURL(s.Host, s.Port)
		}

		out = append(out, Candidate{URL: u, Priority: prio})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})

	if len(out) > 0 {
		return out
	}

	if u := c.legacyURL(); u != "" {
		return []Candidate{{URL: u, Priority: DefaultPriority}}
	}

	return nil
}

// legacyURL is the single endpoint derived from url or host and port.
func (c Config) legacyURL() string {
	if c.URL != "" {
		return c.URL
	}

	if c.Host != "" {
		return hostURL(c.Host, c.Port)
	}

	return ""
}

// defaultURL is the endpoint used for the confirming user bind.
func (c Config) defaultURL() string {
	if u := c.legacyURL(); u != "" {
		return u
	}

	if cands := c.Candidates(); len(cands) > 0 {
		return cands[0].URL
	}

	return ""
}

func hostURL(host string, port int) string {
	if port == 0 {
		port = DefaultPort
	}

	return "ldap://" + net.JoinHostPort(host, strconv.Itoa(port))
}
