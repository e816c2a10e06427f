package richtext

import (
	"net/url"
	"strings"
)

// NormalizeLink validates and normalizes a candidate link target. It is the
// single authority for deciding whether an href/src value is safe to emit.
//
// Accepted forms:
//   - relative paths and fragments ("/...", "#...") verbatim
//   - "mailto:" and "tel:" links verbatim
//   - absolute https URLs, returned in canonical serialization
//
// Everything else (non-strings, empty values, whitespace or control
// characters, javascript: URLs, non-https schemes, unparseable URLs) is
// rejected.
func NormalizeLink(candidate interface{}) (string, bool) {
	raw, ok := candidate.(string)
	if !ok {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	for _, r := range raw {
		if r <= 0x1F || r == 0x7F || r == ' ' {
			return "", false
		}
	}

	if strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		return "", false
	}

	if raw[0] == '/' || raw[0] == '#' {
		return raw, true
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return raw, true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "https" {
		return "", false
	}

	return u.String(), true
}
