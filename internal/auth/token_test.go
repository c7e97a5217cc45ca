package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	testCases := []struct {
		expr     string
		expected time.Duration
		err      bool
	}{
		{expr: "", expected: 24 * time.Hour},
		{expr: "1d", expected: 24 * time.Hour},
		{expr: "12h", expected: 12 * time.Hour},
		{expr: "5m", expected: 5 * time.Minute},
		{expr: "1w", expected: 7 * 24 * time.Hour},
		{expr: "1d12h", expected: 36 * time.Hour},
		{expr: "0s", err: true},
		{expr: "-1h", err: true},
		{expr: "tomorrow", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			d, err := ParseExpiry(tc.expr)
			if tc.err {
				require.ErrorIs(t, err, ErrInvalidExpiry)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer(testSecret, "api")

	tok, err := issuer.Issue(42, []string{ScopeUser}, "1h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expires, time.Minute)

	claims, err := issuer.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.HasScope(ScopeUser))
	assert.False(t, claims.HasScope(ScopeWorker))

	other, err := issuer.Issue(42, []string{ScopeUser}, "1h")
	require.NoError(t, err)
	assert.NotEqual(t, tok.Token, other.Token, "token ids are unique")
}

func TestIssuer_Rejects(t *testing.T) {
	issuer := NewIssuer(testSecret, "api")

	valid, err := issuer.Issue(1, []string{ScopeUser}, "1h")
	require.NoError(t, err)

	expired := NewIssuer(testSecret, "api")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, err := expired.Issue(1, []string{ScopeUser}, "1d")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "api"},
		UserID:           1,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "api", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		issuer *Issuer
		raw    string
	}{
		{name: "wrong secret", issuer: NewIssuer("another-secret-another-secret-xx", "api"), raw: valid.Token},
		{name: "wrong issuer", issuer: NewIssuer(testSecret, "other"), raw: valid.Token},
		{name: "expired", issuer: issuer, raw: old.Token},
		{name: "no expiry", issuer: issuer, raw: noExp},
		{name: "alg none", issuer: issuer, raw: none},
		{name: "garbage", issuer: issuer, raw: "a.b.c"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := tc.issuer.Parse(tc.raw)
			require.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
