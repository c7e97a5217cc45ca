package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersFrom(t *testing.T) {
	headers := map[string]string{
		"Remote-Email":       "ada@example.org",
		"X-Forwarded-Email":  "ignored@example.org",
		"X-Forwarded-User":   "ada",
		"X-Forwarded-Groups": "admins,users",
	}

	h := HeadersFrom(func(key string) string { return headers[key] })

	assert.Equal(t, SSOHeaders{
		Email:  "ada@example.org",
		User:   "ada",
		Groups: "admins,users",
	}, h)
}

func TestSSOHeaders_CanonicalEmail(t *testing.T) {
	testCases := []struct {
		email    string
		expected string
		err      error
	}{
		{email: " Ada@Example.ORG ", expected: "ada@example.org"},
		{email: "", err: ErrSSOMissingEmail},
		{email: "   ", err: ErrSSOMissingEmail},
		{email: "ada", err: ErrSSOInvalidEmail},
		{email: "ada@localhost", err: ErrSSOInvalidEmail},
		{email: "a da@example.org", err: ErrSSOInvalidEmail},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			got, err := SSOHeaders{Email: tc.email}.CanonicalEmail()
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSSOHeaders_DisplayName(t *testing.T) {
	testCases := []struct {
		name     string
		headers  SSOHeaders
		expected string
	}{
		{name: "name header", headers: SSOHeaders{Name: "Ada Lovelace", User: "ada"}, expected: "Ada Lovelace"},
		{name: "markup stripped", headers: SSOHeaders{Name: "<script>x</script><b>Ada</b>"}, expected: "Ada"},
		{name: "entities kept readable", headers: SSOHeaders{Name: "Tom & Jerry"}, expected: "Tom & Jerry"},
		{name: "user header", headers: SSOHeaders{Name: "<img src=x>", User: "ada"}, expected: "ada"},
		{name: "fallback", headers: SSOHeaders{}, expected: "fallback"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.headers.DisplayName("fallback"))
		})
	}
}

func TestSSOHeaders_GroupList(t *testing.T) {
	assert.Equal(t, []string{"admins", "users"}, SSOHeaders{Groups: " admins, ,users,"}.GroupList())
	assert.Equal(t, []string{}, SSOHeaders{}.GroupList())
}
