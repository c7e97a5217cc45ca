package directory

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

//nolint:gochecknoglobals
var (
	cnPattern     = regexp.MustCompile(`(?i)^cn=([^,]+)`)
	peoplePattern = regexp.MustCompile(`(?i)^ou=people`)
)

// CommonName returns the cn component of a DN shaped value, or the value itself.
func CommonName(value string) string {
	if m := cnPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}

	return value
}

// LookupGroupsByEmail resolves the groups of the user with the given email.
// Membership recorded on the user entry wins; otherwise group objects that
// reference the user are searched under a few conventional bases.
// Errors are logged and yield an empty list.
func (d *Directory) LookupGroupsByEmail(ctx context.Context, email string) []string {
	cfg, err := d.provider.Load(ctx)
	if err != nil || !cfg.Enabled || !cfg.HasServiceAccount() {
		return []string{}
	}

	sess, _, err := d.connector.Connect(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("LDAP connection failed for group lookup")

		return []string{}
	}
	defer sess.Close()

	groups, err := lookupGroups(sess, cfg, email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("LDAP group lookup failed")

		return []string{}
	}

	return groups
}

func lookupGroups(sess Session, cfg Config, email string) ([]string, error) {
	emailAttr := orDefault(cfg.EmailAttribute, "mail")
	groupAttr := orDefault(cfg.GroupAttribute, "memberOf")

	raw, err := sess.Search(SearchRequest{
		BaseDN:     cfg.BaseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     "(" + emailAttr + "=" + ldap.EscapeFilter(email) + ")",
		Attributes: []string{"dn", emailAttr, groupAttr},
	})
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return []string{}, nil
	}

	user := Flatten(raw[0])
	groups := []string{}

	if v, ok := user.Get(groupAttr); ok {
		for _, g := range v.Strings() {
			groups = append(groups, CommonName(g))
		}
	}

	if len(groups) > 0 || user.DN == "" {
		return groups, nil
	}

	return searchGroupObjects(sess, cfg, user.DN, email), nil
}

// searchGroupObjects probes the group search bases in order and returns the
// common names found under the first base with any match.
func searchGroupObjects(sess Session, cfg Config, userDN, email string) []string {
	localPart, _, _ := strings.Cut(email, "@")
	dn := ldap.EscapeFilter(userDN)
	filter := "(|(member=" + dn + ")(uniqueMember=" + dn + ")(memberUid=" + ldap.EscapeFilter(localPart) + "))"

	for _, base := range groupSearchBases(cfg.BaseDN) {
		raw, err := sess.Search(SearchRequest{
			BaseDN:     base,
			Scope:      ldap.ScopeWholeSubtree,
			Filter:     filter,
			Attributes: []string{"cn"},
		})
		if err != nil {
			log.Debug().Err(err).Str("base", base).Msg("group search base skipped")

			continue
		}

		if len(raw) == 0 {
			continue
		}

		groups := []string{}

		for _, e := range FlattenAll(raw) {
			if cn := e.First("cn"); cn != "" {
				groups = append(groups, cn)
			}
		}

		return groups
	}

	return []string{}
}

// groupSearchBases returns the ou=groups sibling of an ou=people base, the
// ou=groups child of the base and the base itself, without duplicates.
func groupSearchBases(base string) []string {
	candidates := []string{
		peoplePattern.ReplaceAllLiteralString(base, "ou=groups"),
		"ou=groups," + base,
		base,
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, c)
	}

	return out
}
