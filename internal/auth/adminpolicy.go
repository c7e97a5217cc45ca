package auth

import (
	"slices"
	"strings"
)

// commonAdminGroups is consulted for SSO logins when no admin group is configured.
var commonAdminGroups = []string{"admin", "admins", "administrators", "npm-admins", "proxy-admins"} //nolint:gochecknoglobals

// DirectoryAdminMatch reports whether any directory group is the configured admin group,
// either verbatim or as the common name of a group DN. An empty admin group never matches.
func DirectoryAdminMatch(groups []string, adminGroup string) bool {
	if adminGroup == "" {
		return false
	}

	admin := strings.ToLower(adminGroup)

	return slices.ContainsFunc(groups, func(g string) bool {
		g = strings.ToLower(g)

		return g == admin || strings.Contains(g, "cn="+admin+",")
	})
}

// SSOAdminMatch reports whether any SSO group indicates administrator rights.
// With a configured admin group it also accepts any group containing the admin
// group name. Without one, a fixed list of common admin group names is used.
func SSOAdminMatch(groups []string, adminGroup string) bool {
	if adminGroup != "" {
		admin := strings.ToLower(adminGroup)

		return slices.ContainsFunc(groups, func(g string) bool {
			g = strings.ToLower(g)

			return g == admin || strings.Contains(g, "cn="+admin+",") || strings.Contains(g, admin)
		})
	}

	return slices.ContainsFunc(groups, func(g string) bool {
		g = strings.ToLower(g)

		for _, name := range commonAdminGroups {
			if g == name || strings.HasPrefix(g, "cn="+name+",") {
				return true
			}
		}

		return false
	})
}

// AdminEmailMatch reports whether email is on the admin allowlist.
func AdminEmailMatch(email string, allowlist []string) bool {
	return slices.Contains(allowlist, strings.ToLower(strings.TrimSpace(email)))
}
