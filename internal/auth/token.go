package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/xhit/go-str2duration/v2"
)

const (
	// ScopeUser is the default scope of every login.
	ScopeUser = "user"
	// ScopeChallenge marks a token that only grants second factor verification.
	ScopeChallenge = "2fa-challenge"
	// ScopeJobBoard and ScopeWorker are service scopes issued without a user.
	ScopeJobBoard = "job-board"
	ScopeWorker   = "worker"

	// DefaultExpiry applies when a request carries no expiry expression.
	DefaultExpiry = "1d"
	// ChallengeExpiry is the lifetime of a second factor challenge token.
	ChallengeExpiry = "5m"
)

// Claims are the claims carried by issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the local user the token was issued for. Service tokens carry 0.
	UserID uint64 `json:"uid"`
	// Scope lists the granted scopes.
	Scope []string `json:"scope"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scope, scope)
}

// Token is a signed token and its expiry.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Issuer signs and verifies HMAC tokens.
type Issuer struct {
	secret []byte
	name   string
	now    func() time.Time
}

// NewIssuer creates an issuer signing with secret and stamping name as the issuer claim.
func NewIssuer(secret, name string) *Issuer {
	return &Issuer{secret: []byte(secret), name: name, now: time.Now}
}

// ParseExpiry parses an expiry expression such as "1d", "12h" or "5m".
func ParseExpiry(expr string) (time.Duration, error) {
	if expr == "" {
		expr = DefaultExpiry
	}

	d, err := str2duration.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidExpiry, expr)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidExpiry, expr)
	}

	return d, nil
}

// Issue signs a token for userID with the given scopes, valid for the expiry expression.
func (i *Issuer) Issue(userID uint64, scope []string, expiry string) (*Token, error) {
	ttl, err := ParseExpiry(expiry)
	if err != nil {
		return nil, err
	}

	now := i.now()
	expires := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.name,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: userID,
		Scope:  scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Token: signed, Expires: expires.UTC()}, nil
}

// Parse verifies a signed token and returns its claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}
