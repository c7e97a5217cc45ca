package auth

import (
	"crypto/md5" //nolint:gosec // colour derivation only
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const avatarTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96" viewBox="0 0 96 96">
<rect width="96" height="96" rx="48" fill="%s"/>
<text x="48" y="48" dy=".35em" text-anchor="middle" fill="white" ` +
	`font-family="-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,sans-serif" font-size="%d" font-weight="600">%s</text>
</svg>`

// GenerateAvatar renders an initials avatar as an SVG data URI.
// The colour is derived from the email so it is stable across logins.
func GenerateAvatar(email, name string) string {
	seed := email
	if seed == "" {
		seed = "default"
	}

	text := initials(name, email)

	fontSize := 48
	if utf8.RuneCountInString(text) > 1 {
		fontSize = 40
	}

	svg := fmt.Sprintf(avatarTemplate, avatarColor(seed), fontSize, html.EscapeString(text))

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// avatarColor maps the first four hex digits of md5(email) onto a hue.
func avatarColor(seed string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(seed)))) //nolint:gosec // not a security boundary
	h, _ := strconv.ParseUint(hex.EncodeToString(sum[:2]), 16, 32)

	return fmt.Sprintf("hsl(%d, 55%%, 45%%)", h%360)
}

func initials(name, email string) string {
	if parts := strings.Fields(name); len(parts) > 0 {
		if len(parts) == 1 {
			return firstUpper(parts[0])
		}

		return firstUpper(parts[0]) + firstUpper(parts[len(parts)-1])
	}

	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return firstUpper(local)
	}

	return "?"
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(s)

	return string(unicode.ToUpper(r))
}
