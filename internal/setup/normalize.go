// Package setup implements the two-step installation flow: validate
// credentials against a Redmine instance, then capture operational defaults
// from its reference data and persist the result.
package setup

import "strings"

// NormalizeURL canonicalizes a user-entered Redmine URL: surrounding
// whitespace and every trailing slash are removed, and "http://" is
// prepended when no explicit scheme is present. Normalization happens once,
// at entry; the result is stored as-is and never re-normalized.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	u = strings.TrimRight(u, "/")
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}
