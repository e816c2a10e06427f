package content

import (
	"context"

	"parishcms/internal/domain/models/content"
)

// PageRepository defines data access for page versions and their ordered
// child rows. It exclusively owns the page/section/item tables; named
// sub-documents are referenced by id only.
//
// All methods participate in an ambient transaction when one is present in
// the context (see repositories.SetTx).
type PageRepository interface {
	// InsertVersion inserts a new preview row for page.Slug, computing the
	// next version number atomically within the same statement
	// (COALESCE(MAX(version),0)+1 across both statuses). On success it
	// fills page.ID, page.Version and page.CreatedAt. A concurrent save
	// that wins the same version surfaces as domain.ErrVersionConflict.
	InsertVersion(ctx context.Context, page *content.Page) error

	// InsertCopy inserts a page row with an explicit version and status,
	// used by publish to duplicate a preview snapshot. Fills page.ID.
	InsertCopy(ctx context.Context, page *content.Page) error

	// DeletePublished removes the published row set (page, sections,
	// items) for a slug. No-op when nothing is published.
	DeletePublished(ctx context.Context, slug string) error

	// InsertSections inserts section rows for a page, preserving the
	// given order of pos values.
	InsertSections(ctx context.Context, pageID string, sections []content.Section) error

	// InsertActivities / InsertEvents insert item rows preserving the
	// submitted pos values; gaps are not compacted.
	InsertActivities(ctx context.Context, pageID string, items []content.ActivityItem) error
	InsertEvents(ctx context.Context, pageID string, items []content.EventItem) error

	// LatestPreview returns the highest preview version for a slug with
	// its sections and items, or domain.ErrNotFound.
	LatestPreview(ctx context.Context, slug string) (*content.Page, error)

	// Published returns the published version for a slug with its
	// sections and items, or domain.ErrNotFound.
	Published(ctx context.Context, slug string) (*content.Page, error)

	// ByID returns a page of any status with its sections and items, or
	// domain.ErrNotFound. Used by explicitly id-addressed links.
	ByID(ctx context.Context, pageID string) (*content.Page, error)

	// ItemCount returns the number of items of one kind on a page.
	ItemCount(ctx context.Context, pageID string, kind content.ItemKind) (int, error)

	// InsertActivity / InsertEvent append a single item to the current
	// preview page, filling its ID.
	InsertActivity(ctx context.Context, item *content.ActivityItem) error
	InsertEvent(ctx context.Context, item *content.EventItem) error

	// ItemPage returns the id of the page owning an item, or
	// domain.ErrNotFound for an unknown id.
	ItemPage(ctx context.Context, kind content.ItemKind, itemID string) (pageID string, err error)

	// DeleteItem removes one item by id and returns the owning page id.
	// Returns domain.ErrNotFound for an unknown id.
	DeleteItem(ctx context.Context, kind content.ItemKind, itemID string) (pageID string, err error)

	// ReorderItems rewrites pos for exactly the supplied ids, in the
	// supplied order, starting at 0. Ids not belonging to the page are an
	// error; items of the page not listed keep their pos.
	ReorderItems(ctx context.Context, pageID string, kind content.ItemKind, ids []string) error
}
