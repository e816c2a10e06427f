package content

import (
	"context"

	"parishcms/internal/domain/models/content"
)

// PageService exposes the page ledger: version queries and the
// preview-to-published promotion.
type PageService interface {
	// Publish copies the latest preview snapshot of a slug into the
	// published snapshot, replacing any prior published rows atomically.
	// The copied rows keep the preview's version number. Returns
	// domain.ErrNotFound when the slug has no preview version.
	Publish(ctx context.Context, slug string) (*SaveResult, error)

	// LatestPreview returns the highest preview version with children.
	LatestPreview(ctx context.Context, slug string) (*content.Page, error)

	// Published returns the published version with children.
	Published(ctx context.Context, slug string) (*content.Page, error)

	// ByID returns a page of any status with children.
	ByID(ctx context.Context, pageID string) (*content.Page, error)
}

// SaveResult identifies the page version a save or publish produced.
type SaveResult struct {
	PageID  string `json:"page_id"`
	Version int    `json:"version"`
}
