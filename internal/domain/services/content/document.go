package content

import (
	"context"
	"encoding/json"

	"parishcms/internal/domain/models/content"
)

// DocumentService is the document store: it persists named sub-documents
// and guarantees that HTML leaving it is safe, regenerating from the
// structured JSON whenever the stored markup fails validation.
type DocumentService interface {
	// Get returns the document for (slug, document id) together with the
	// load state that produced its HTML. A missing row yields
	// (nil, LoadMissing, nil); absence is not an error. The returned
	// ContentHTML has always passed validation or been freshly rendered.
	Get(ctx context.Context, slug, documentID string) (*content.NamedDocument, content.LoadState, error)

	// Put renders contentJSON under the named profile and upserts the
	// document. The persisted HTML is always the fresh render; callers
	// cannot supply markup.
	Put(ctx context.Context, slug, documentID, profile string, contentJSON json.RawMessage) (*content.NamedDocument, error)
}
