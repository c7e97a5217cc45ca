package auth

import "errors"

var (
	// ErrInvalidCredentials is the only error a password login reports to callers.
	// The underlying local or directory failure is logged, not returned.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled is returned when the matching local user is disabled.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrNoLocalAccount is returned when a directory login succeeded but auto provisioning is off.
	ErrNoLocalAccount = errors.New(
		"LDAP authentication succeeded but no local account exists. Please contact an administrator",
	)

	// ErrUserExists is returned when creating a local user whose email is taken.
	ErrUserExists = errors.New("user with email already exists")

	// ErrInvalidScope is returned when the requested scope is not held as a role.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidExpiry is returned for unparsable or non-positive expiry expressions.
	ErrInvalidExpiry = errors.New("invalid expiry time")

	// ErrInvalidToken is returned for tokens that fail signature, issuer or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidChallenge is returned when a second factor is submitted with a token
	// that is not a challenge token.
	ErrInvalidChallenge = errors.New("invalid challenge token")

	// ErrInvalidTwoFactorCode is returned when the second factor code does not verify.
	ErrInvalidTwoFactorCode = errors.New("invalid verification code")

	// ErrTwoFactorNotEnrolled is returned when enabling a second factor without enrolment.
	ErrTwoFactorNotEnrolled = errors.New("two-factor authentication is not enrolled")

	// ErrUserNotFound is returned when no active user has the given email.
	ErrUserNotFound = errors.New("user not found")

	// ErrSSOMissingEmail is returned when the trusted proxy sent no email header.
	ErrSSOMissingEmail = errors.New("SSO: no email header provided")

	// ErrSSOInvalidEmail is returned when the email header is not shaped like an address.
	ErrSSOInvalidEmail = errors.New("SSO: invalid email format in header")
)
