package richtext

import "github.com/microcosm-cc/bluemonday"

// InlineSanitizer cleans admin-authored inline markup fragments (section
// bodies and item descriptions submitted as HTML rather than structured
// JSON) before they are persisted. It strips scripts, event handlers and
// javascript: URLs while keeping common formatting.
//
// Thread-safe for concurrent use.
type InlineSanitizer struct {
	policy *bluemonday.Policy
}

// NewInlineSanitizer creates a sanitizer with a UGC policy.
func NewInlineSanitizer() *InlineSanitizer {
	return &InlineSanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns the cleaned markup.
func (s *InlineSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
