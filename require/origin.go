package require

import "strings"

// PrefixOriginMatcher is the built-in OriginMatcher: entry matches uri
// when uri starts with entry. It is the only matcher Init installs, and
// State has no exported way to add further matchers.
func PrefixOriginMatcher(entry, uri string) bool {
	return strings.HasPrefix(uri, entry)
}
