package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parishcms/internal/cache"
	models "parishcms/internal/domain/models/content"
	contentRepo "parishcms/internal/domain/repositories/content"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/richtext"
)

// pageTTL keeps re-validation work off the hot path for unchanged pages.
// Writes invalidate synchronously, so the TTL only bounds staleness when an
// invalidation is lost.
const pageTTL = 5 * time.Minute

// resolverService implements the ResolverService interface.
type resolverService struct {
	pageRepo contentRepo.PageRepository
	docSvc   contentSvc.DocumentService
	cache    cache.Cache
	logger   *slog.Logger

	clock func() time.Time
}

// NewResolverService creates a new public resolver.
func NewResolverService(
	pageRepo contentRepo.PageRepository,
	docSvc contentSvc.DocumentService,
	c cache.Cache,
	logger *slog.Logger,
) contentSvc.ResolverService {
	return &resolverService{
		pageRepo: pageRepo,
		docSvc:   docSvc,
		cache:    c,
		logger:   logger,
		clock:    time.Now,
	}
}

// ResolveSlug serves the published page for a slug. Slug-addressed public
// traffic never reaches preview content.
func (s *resolverService) ResolveSlug(ctx context.Context, slug string) (string, error) {
	return s.resolve(ctx, publishedKey(slug), func(ctx context.Context) (*models.Page, error) {
		return s.pageRepo.Published(ctx, slug)
	})
}

// ResolveID serves a page of any status. Reached only through explicitly
// id-addressed routes (direct preview/share links).
func (s *resolverService) ResolveID(ctx context.Context, pageID string) (string, error) {
	return s.resolve(ctx, pageIDKey(pageID), func(ctx context.Context) (*models.Page, error) {
		return s.pageRepo.ByID(ctx, pageID)
	})
}

// Preview serves the latest preview version for the admin view.
func (s *resolverService) Preview(ctx context.Context, slug string) (string, error) {
	return s.resolve(ctx, previewKey(slug), func(ctx context.Context) (*models.Page, error) {
		return s.pageRepo.LatestPreview(ctx, slug)
	})
}

func (s *resolverService) resolve(ctx context.Context, key string, load func(context.Context) (*models.Page, error)) (string, error) {
	if html, err := s.cache.Get(ctx, key); err == nil {
		return html, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		// Cache trouble degrades to a render, never to an error.
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	page, err := load(ctx)
	if err != nil {
		return "", err
	}

	html := s.renderPage(ctx, page)

	if err := s.cache.Set(ctx, key, html, pageTTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return html, nil
}

// renderPage assembles the full page markup: title, hero image, sections in
// ascending pos, with activity/event sections expanding into their ordered
// item lists. All document-backed content goes through the validated
// document store path.
func (s *resolverService) renderPage(ctx context.Context, page *models.Page) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<article data-page-version=\"%d\">", page.Version)
	fmt.Fprintf(&b, "<h1>%s</h1>", richtext.Escape(page.Title))
	if page.HeroImageKey != "" {
		fmt.Fprintf(&b, `<img class="hero" src="/media/%s" alt="">`, richtext.Escape(page.HeroImageKey))
	}

	for _, section := range page.Sections {
		fmt.Fprintf(&b, `<section data-kind="%s">`, richtext.Escape(section.Kind))
		b.WriteString(s.sectionHTML(ctx, page, section))

		switch section.Kind {
		case models.SectionActivities:
			s.renderActivities(ctx, &b, page)
		case models.SectionEvents:
			s.renderEvents(ctx, &b, page)
		}
		b.WriteString("</section>")
	}

	if page.DonateEnabled {
		b.WriteString(`<aside class="donate"><a href="/donate">Donate</a></aside>`)
	}

	b.WriteString("</article>")
	return b.String()
}

// sectionHTML resolves one section's own content: referenced document,
// stored inline markup, or inline structured JSON, in that order. Inline
// markup gets the same validate-or-regenerate treatment as stored document
// HTML.
func (s *resolverService) sectionHTML(ctx context.Context, page *models.Page, section models.Section) string {
	if section.ContentID != "" {
		return s.documentHTML(ctx, page.Slug, section.ContentID)
	}

	profile := richtext.ProfileByName(richtext.ProfileFull)

	if section.ContentHTML != "" {
		if err := richtext.ValidateStoredHTML(section.ContentHTML, profile); err == nil {
			return section.ContentHTML
		}
		s.warn(section.ID, richtext.ReasonStoredHTMLInvalid)
	}

	if len(section.ContentJSON) > 0 {
		parsed, err := richtext.ParseDocument(section.ContentJSON)
		if err != nil {
			s.warn(section.ID, richtext.ReasonContentJSONInvalid)
			return "<p></p>"
		}
		res := richtext.Render(parsed, profile)
		for _, w := range res.Warnings {
			s.warn(section.ID, w.Reason)
		}
		return res.HTML
	}

	if section.ContentHTML != "" {
		// Stored markup was invalid and there is no JSON to regenerate
		// from; the section degrades rather than leaking unsafe markup.
		return "<p></p>"
	}
	return ""
}

func (s *resolverService) renderActivities(ctx context.Context, b *strings.Builder, page *models.Page) {
	if len(page.Activities) == 0 {
		return
	}
	layout := page.ActivitiesLayout
	if layout == "" {
		layout = "list"
	}
	fmt.Fprintf(b, `<ul class="activities" data-layout="%s">`, richtext.Escape(layout))
	for _, item := range page.Activities {
		fmt.Fprintf(b, `<li data-item-id="%s"><h3>%s</h3>%s</li>`,
			richtext.Escape(item.ID),
			richtext.Escape(item.Title),
			s.itemDescription(ctx, page.Slug, item.DescriptionID, item.DescriptionHTML),
		)
	}
	b.WriteString("</ul>")
}

func (s *resolverService) renderEvents(ctx context.Context, b *strings.Builder, page *models.Page) {
	events := page.Events
	if page.EventsHidePast {
		today := s.clock().Truncate(24 * time.Hour)
		kept := events[:0:0]
		for _, ev := range events {
			if !ev.StartDate.Before(today) {
				kept = append(kept, ev)
			}
		}
		events = kept
	}
	if len(events) == 0 {
		return
	}

	b.WriteString(`<ul class="events">`)
	for _, ev := range events {
		fmt.Fprintf(b, `<li data-item-id="%s"><time datetime="%s">%s</time><h3>%s</h3>%s</li>`,
			richtext.Escape(ev.ID),
			ev.StartDate.Format(startDateLayout),
			ev.StartDate.Format("2 January 2006"),
			richtext.Escape(ev.Title),
			s.itemDescription(ctx, page.Slug, ev.DescriptionID, ev.DescriptionHTML),
		)
	}
	b.WriteString("</ul>")
}

// itemDescription resolves an item's description. An unresolvable
// sub-document keeps the item and degrades the description to an empty
// paragraph; items are never dropped for a bad description.
func (s *resolverService) itemDescription(ctx context.Context, slug, descriptionID, inlineHTML string) string {
	if descriptionID != "" {
		return s.documentHTML(ctx, slug, descriptionID)
	}
	return inlineHTML
}

func (s *resolverService) documentHTML(ctx context.Context, slug, documentID string) string {
	doc, state, err := s.docSvc.Get(ctx, slug, documentID)
	if err != nil {
		s.logger.Warn("document load failed", "slug", slug, "document_id", documentID, "error", err)
		return "<p></p>"
	}
	if state == models.LoadMissing {
		s.warn(documentID, "document_missing")
		return "<p></p>"
	}
	return doc.ContentHTML
}

func (s *resolverService) warn(id, reason string) {
	s.logger.Warn(renderWarningEvent,
		"event", renderWarningEvent,
		"reason", reason,
		"document_id", id,
	)
}
