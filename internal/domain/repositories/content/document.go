package content

import (
	"context"

	"parishcms/internal/domain/models/content"
)

// DocumentRepository defines data access for named sub-documents. Rows are
// only ever created or overwritten by saves; there is no delete.
type DocumentRepository interface {
	// Get retrieves a document by its (slug, document id) key.
	// Returns domain.ErrNotFound when no row exists.
	Get(ctx context.Context, slug, documentID string) (*content.NamedDocument, error)

	// Upsert inserts or overwrites the document identified by
	// (doc.Slug, doc.DocumentID) and refreshes doc.UpdatedAt.
	Upsert(ctx context.Context, doc *content.NamedDocument) error
}
