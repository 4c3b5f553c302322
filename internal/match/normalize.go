// Package match resolves free-text field references to concrete field
// records. Its cascade is the single source of truth for "do these two
// names refer to the same field" and is reused unmodified by the
// evaluation engine's field comparator.
package match

import "strings"

// Normalize lowercases a name and strips everything except [a-z0-9].
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TrimUnderscores strips leading and trailing underscores from a variable
// name.
func TrimUnderscores(s string) string {
	return strings.Trim(s, "_")
}
