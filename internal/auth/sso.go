package auth

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dirauth/dirauth/internal/db/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`) //nolint:gochecknoglobals
	plainText    = bluemonday.StrictPolicy()                      //nolint:gochecknoglobals
)

// SSOHeaders is the identity a trusted reverse proxy forwards with each request.
type SSOHeaders struct {
	Email  string
	User   string
	Name   string
	Groups string
}

// HeadersFrom reads the Remote-* headers, falling back to their X-Forwarded-* variants.
func HeadersFrom(get func(key string) string) SSOHeaders {
	pick := func(name string) string {
		if v := get("Remote-" + name); v != "" {
			return v
		}

		return get("X-Forwarded-" + name)
	}

	return SSOHeaders{
		Email:  pick("Email"),
		User:   pick("User"),
		Name:   pick("Name"),
		Groups: pick("Groups"),
	}
}

// CanonicalEmail validates the email header and returns it lower-cased and trimmed.
func (h SSOHeaders) CanonicalEmail() (string, error) {
	if strings.TrimSpace(h.Email) == "" {
		return "", ErrSSOMissingEmail
	}

	email := models.CanonicalEmail(h.Email)
	if !emailPattern.MatchString(email) {
		return "", ErrSSOInvalidEmail
	}

	return email, nil
}

// DisplayName returns the name header stripped of markup, else the user header, else fallback.
func (h SSOHeaders) DisplayName(fallback string) string {
	for _, v := range []string{h.Name, h.User} {
		if v = strings.TrimSpace(html.UnescapeString(plainText.Sanitize(v))); v != "" {
			return v
		}
	}

	return fallback
}

// GroupList splits the comma separated group header, dropping blanks.
func (h SSOHeaders) GroupList() []string {
	groups := []string{}

	for _, g := range strings.Split(h.Groups, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}

	return groups
}
