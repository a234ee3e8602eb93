package remote

import "strings"

// SyntheticID derives a short module id from a URL: the last path segment with
// everything from its first dot removed. "https://example.com/pkg/foo.min.js" becomes "foo".
// Distinct URLs may share an id; the Registry rejects that case.
func SyntheticID(rawURL string) string {
	id := rawURL
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "."); i >= 0 {
		id = id[:i]
	}
	return id
}

// IsRemote reports whether specifier is an absolute http or https URL.
// secure is true for https.
func IsRemote(specifier string) (remote bool, secure bool) {
	switch {
	case strings.HasPrefix(specifier, "https://"):
		return true, true
	case strings.HasPrefix(specifier, "http://"):
		return true, false
	default:
		return false, false
	}
}
