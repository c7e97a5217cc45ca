package directory

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Identity is the canonical user derived from a directory entry.
type Identity struct {
	// DN is the distinguished name of the entry.
	DN string
	// Email is lower-cased and trimmed. Never empty.
	Email string
	// Name falls back to Email. Never empty.
	Name string
	// Groups are raw values, either full DNs or bare names.
	Groups []string
	// Avatar is a data URI of the directory photo, or "".
	Avatar string
}

// Resolve derives an Identity from entry using the attribute mapping of cfg.
func Resolve(entry Entry, cfg Config) (*Identity, error) {
	emailAttr := orDefault(cfg.EmailAttribute, "mail")
	nameAttr := orDefault(cfg.NameAttribute, "displayName")
	groupAttr := orDefault(cfg.GroupAttribute, "memberOf")

	email := strings.ToLower(strings.TrimSpace(entry.First(emailAttr)))
	if email == "" {
		return nil, fmt.Errorf("%w (%s), check the email attribute mapping", ErrIdentity, emailAttr)
	}

	id := &Identity{
		DN:    entry.DN,
		Email: email,
		Name:  resolveName(entry, nameAttr, email),
	}

	if v, ok := entry.Get(groupAttr); ok {
		id.Groups = v.Strings()
	}

	if id.Groups == nil {
		id.Groups = []string{}
	}

	photo := entry.Binary("thumbnailPhoto")
	if len(photo) == 0 {
		photo = entry.Binary("jpegPhoto")
	}

	if len(photo) > 0 {
		id.Avatar = "data:" + sniffImage(photo) + ";base64," + base64.StdEncoding.EncodeToString(photo)
	}

	return id, nil
}

func resolveName(entry Entry, nameAttr, email string) string {
	if n := entry.First(nameAttr); n != "" {
		return n
	}

	var parts []string

	for _, attr := range []string{"givenName", "sn"} {
		if v := entry.First(attr); v != "" {
			parts = append(parts, v)
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	for _, attr := range []string{"cn", "uid", "sAMAccountName"} {
		if v := entry.First(attr); v != "" {
			return v
		}
	}

	return email
}

// sniffImage picks a MIME type from the leading magic bytes, defaulting to JPEG.
func sniffImage(b []byte) string {
	if len(b) < 2 {
		return "image/jpeg"
	}

	switch {
	case b[0] == 0x89 && b[1] == 0x50:
		return "image/png"
	case b[0] == 0x47 && b[1] == 0x49:
		return "image/gif"
	case b[0] == 0x42 && b[1] == 0x4D:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// attributes lists what user searches request, without duplicates.
func attributes(cfg Config) []string {
	list := []string{
		"dn",
		orDefault(cfg.EmailAttribute, "mail"),
		orDefault(cfg.NameAttribute, "displayName"),
		"cn",
		"sn",
		"givenName",
		"uid",
		"sAMAccountName",
		"thumbnailPhoto",
		"jpegPhoto",
		orDefault(cfg.GroupAttribute, "memberOf"),
	}

	seen := make(map[string]struct{}, len(list))
	out := list[:0]

	for _, a := range list {
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, a)
	}

	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
