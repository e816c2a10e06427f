package content

import "context"

// ResolverService serves rendered page HTML to the outside: published
// content for slug-addressed public routes, any-status content for
// explicitly id-addressed links, and the latest preview for the admin view.
// Reads go through the cache; cache unavailability degrades to re-rendering,
// never to an error.
type ResolverService interface {
	// ResolveSlug returns the published page's HTML, or domain.ErrNotFound.
	ResolveSlug(ctx context.Context, slug string) (string, error)

	// ResolveID returns a page's HTML regardless of status, or
	// domain.ErrNotFound. Only ever reached via explicit page-id routes.
	ResolveID(ctx context.Context, pageID string) (string, error)

	// Preview returns the latest preview version's HTML, or
	// domain.ErrNotFound. Authenticated admin use only.
	Preview(ctx context.Context, slug string) (string, error)
}
