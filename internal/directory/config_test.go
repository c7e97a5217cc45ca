package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.False(t, c.Enabled)
	assert.Equal(t, AuthModeInternal, c.AuthMode)
	assert.Equal(t, DefaultPort, c.Port)
	assert.Equal(t, DefaultSearchFilter, c.SearchFilter)
	assert.Equal(t, "mail", c.EmailAttribute)
	assert.Equal(t, "displayName", c.NameAttribute)
	assert.Equal(t, "memberOf", c.GroupAttribute)
	assert.Equal(t, 5000, c.ConnectTimeout)
	assert.Equal(t, 10000, c.SearchTimeout)
	assert.True(t, c.VerifyTLS())
	assert.True(t, c.AutoCreate())
	assert.False(t, c.SyncAdminGroup)
}

func TestConfig_ApplyDefaultsKeepsExplicitValues(t *testing.T) {
	var c Config

	require.NoError(t, json.Unmarshal([]byte(`{
		"enabled": true,
		"port": 636,
		"tls_verify": false,
		"auto_create_user": false,
		"email_attribute": "userPrincipalName"
	}`), &c))
	require.NoError(t, c.ApplyDefaults())

	assert.Equal(t, 636, c.Port)
	assert.False(t, c.VerifyTLS())
	assert.False(t, c.AutoCreate())
	assert.Equal(t, "userPrincipalName", c.EmailAttribute)
	assert.Equal(t, "displayName", c.NameAttribute)
}

func TestConfig_Candidates(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      Config
		expected []Candidate
	}{
		{
			name:     "legacy host with default port",
			cfg:      Config{Host: "ldap.example.org"},
			expected: []Candidate{{URL: "ldap://ldap.example.org:389", Priority: DefaultPriority}},
		},
		{
			name:     "legacy url wins over host",
			cfg:      Config{Host: "ignored", Port: 1389, URL: "ldaps://dc1.example.org"},
			expected: []Candidate{{URL: "ldaps://dc1.example.org", Priority: DefaultPriority}},
		},
		{
			name: "server list sorted by priority",
			cfg: Config{
				Host: "legacy",
				Servers: []Server{
					{URL: "ldap://c", Priority: 3},
					{URL: "ldap://a", Priority: 1},
					{Host: "b", Port: 1389, Priority: 2},
				},
			},
			expected: []Candidate{
				{URL: "ldap://a", Priority: 1},
				{URL: "ldap://b:1389", Priority: 2},
				{URL: "ldap://c", Priority: 3},
			},
		},
		{
			name: "missing priority sorts last and ties keep input order",
			cfg: Config{
				Servers: []Server{
					{URL: "ldap://first-default"},
					{URL: "ldap://tie-a", Priority: 5},
					{URL: "ldap://second-default"},
					{URL: "ldap://tie-b", Priority: 5},
				},
			},
			expected: []Candidate{
				{URL: "ldap://tie-a", Priority: 5},
				{URL: "ldap://tie-b", Priority: 5},
				{URL: "ldap://first-default", Priority: DefaultPriority},
				{URL: "ldap://second-default", Priority: DefaultPriority},
			},
		},
		{
			name: "entries without url and host are dropped",
			cfg: Config{
				Servers: []Server{
					{Priority: 1},
					{Host: "dc2", Priority: 2},
				},
			},
			expected: []Candidate{{URL: "ldap://dc2:389", Priority: 2}},
		},
		{
			name: "empty server list after filtering falls back to legacy",
			cfg: Config{
				Host:    "legacy",
				Port:    10389,
				Servers: []Server{{Priority: 1}},
			},
			expected: []Candidate{{URL: "ldap://legacy:10389", Priority: DefaultPriority}},
		},
		{
			name:     "nothing configured",
			cfg:      Config{},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.Candidates())
		})
	}
}

func TestConfig_AdminEmails(t *testing.T) {
	c := Config{SSOAdminEmails: " Alice@Example.org, ,bob@example.org "}

	assert.Equal(t, []string{"alice@example.org", "bob@example.org"}, c.AdminEmails())
	assert.Empty(t, Config{}.AdminEmails())
}

func TestConfig_HasServiceAccount(t *testing.T) {
	assert.False(t, Config{BindDN: "cn=svc"}.HasServiceAccount())
	assert.False(t, Config{BindPassword: "x"}.HasServiceAccount())
	assert.True(t, Config{BindDN: "cn=svc", BindPassword: "x"}.HasServiceAccount())
}
