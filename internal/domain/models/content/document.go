package content

import (
	"encoding/json"
	"time"
)

// NamedDocument is a rich-text fragment addressable by (slug, document id),
// independent of any single page's section list. ContentHTML caches the
// renderer's output for ContentJSON; it is regenerated whenever it fails
// read-time validation and must never be trusted as authored markup.
type NamedDocument struct {
	Slug        string          `json:"slug" db:"slug"`
	DocumentID  string          `json:"document_id" db:"document_id"`
	Profile     string          `json:"profile" db:"profile"`
	ContentJSON json.RawMessage `json:"content_json" db:"content_json"`
	ContentHTML string          `json:"content_html" db:"content_html"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// LoadState reports which path produced a document's HTML on read, so
// callers (and tests) can distinguish a validated cache hit from a
// regeneration.
type LoadState int

const (
	// LoadMissing - no row for (slug, document id).
	LoadMissing LoadState = iota
	// LoadValid - stored HTML passed validation and was returned as-is.
	LoadValid
	// LoadRegenerated - stored HTML failed validation; the returned HTML
	// was re-rendered from ContentJSON (or is the empty-paragraph fallback
	// when the JSON itself was unparseable).
	LoadRegenerated
)

func (s LoadState) String() string {
	switch s {
	case LoadMissing:
		return "missing"
	case LoadValid:
		return "valid"
	case LoadRegenerated:
		return "regenerated"
	default:
		return "unknown"
	}
}
