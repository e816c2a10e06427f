package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"parishcms/internal/cache"
	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
)

func TestResolveSlugRendersPublishedPage(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()
	resolver := NewResolverService(f.pageRepo, f.docs, f.cache, discardLogger())

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if _, err := f.pages.Publish(ctx, "landing"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	html, err := resolver.ResolveSlug(ctx, "landing")
	if err != nil {
		t.Fatalf("ResolveSlug: %v", err)
	}
	for _, want := range []string{"Welcome pilgrims", "Our Parish", "Choir", "Harvest festival"} {
		if !strings.Contains(html, want) {
			t.Fatalf("resolved HTML missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script") {
		t.Fatalf("resolved HTML contains script: %s", html)
	}
}

func TestResolveSlugServesCacheUntilInvalidated(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()
	resolver := NewResolverService(f.pageRepo, f.docs, f.cache, discardLogger())

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if _, err := f.pages.Publish(ctx, "landing"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	first, err := resolver.ResolveSlug(ctx, "landing")
	if err != nil {
		t.Fatalf("ResolveSlug: %v", err)
	}

	// With the entry warm, a repo change without invalidation is invisible.
	f.pageRepo.DeletePublished(ctx, "landing")
	cached, err := resolver.ResolveSlug(ctx, "landing")
	if err != nil {
		t.Fatalf("cached ResolveSlug: %v", err)
	}
	if cached != first {
		t.Fatal("expected the cached render")
	}

	// Invalidation exposes the underlying 404.
	if err := f.cache.Delete(ctx, publishedKey("landing")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := resolver.ResolveSlug(ctx, "landing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found after invalidation", err)
	}
}

func TestResolveSlugNeverServesPreview(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()
	resolver := NewResolverService(f.pageRepo, f.docs, f.cache, discardLogger())

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	if _, err := resolver.ResolveSlug(ctx, "landing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found for unpublished slug", err)
	}
}

func TestResolveIDMatchesPreviewOutput(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()
	resolver := NewResolverService(f.pageRepo, f.docs, f.cache, discardLogger())

	saved, err := f.save.SavePage(ctx, landingCommand(t))
	if err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	preview, err := resolver.Preview(ctx, "landing")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	byID, err := resolver.ResolveID(ctx, saved.PageID)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if preview != byID {
		t.Fatalf("id-addressed fetch differs from preview fetch:\n%s\n---\n%s", byID, preview)
	}
}

func TestResolverDegradesWhenCacheIsDown(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()
	resolver := NewResolverService(f.pageRepo, f.docs, failingCache{}, discardLogger())

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if _, err := f.pages.Publish(ctx, "landing"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	html, err := resolver.ResolveSlug(ctx, "landing")
	if err != nil {
		t.Fatalf("cache failure must degrade to a render, got %v", err)
	}
	if !strings.Contains(html, "Welcome pilgrims") {
		t.Fatalf("degraded render incomplete: %s", html)
	}
}

func TestResolverHidesPastEvents(t *testing.T) {
	pageRepo := newFakePageRepo()
	docs := NewDocumentService(newFakeDocRepo(), discardLogger())
	resolver := NewResolverService(pageRepo, docs, cache.NewMemoryCache(), discardLogger()).(*resolverService)
	resolver.clock = func() time.Time {
		return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	ctx := context.Background()
	page := &models.Page{Slug: "events", Title: "Events", EventsHidePast: true}
	if err := pageRepo.InsertVersion(ctx, page); err != nil {
		t.Fatalf("InsertVersion: %v", err)
	}
	sections := []models.Section{{Kind: models.SectionEvents, Pos: 0, ContentHTML: "<p>Calendar</p>"}}
	if err := pageRepo.InsertSections(ctx, page.ID, sections); err != nil {
		t.Fatalf("InsertSections: %v", err)
	}
	events := []models.EventItem{
		{Title: "Spring fair", Pos: 0, StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "Summer picnic", Pos: 1, StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	if err := pageRepo.InsertEvents(ctx, page.ID, events); err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	html, err := resolver.ResolveID(ctx, page.ID)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if strings.Contains(html, "Spring fair") {
		t.Fatalf("past event rendered: %s", html)
	}
	if !strings.Contains(html, "Summer picnic") {
		t.Fatalf("future event missing: %s", html)
	}
}

func TestResolverKeepsItemWithMissingDescription(t *testing.T) {
	pageRepo := newFakePageRepo()
	docs := NewDocumentService(newFakeDocRepo(), discardLogger())
	resolver := NewResolverService(pageRepo, docs, cache.NewMemoryCache(), discardLogger())

	ctx := context.Background()
	page := &models.Page{Slug: "clubs", Title: "Clubs"}
	if err := pageRepo.InsertVersion(ctx, page); err != nil {
		t.Fatalf("InsertVersion: %v", err)
	}
	sections := []models.Section{{Kind: models.SectionActivities, Pos: 0, ContentHTML: "<p>Join us</p>"}}
	if err := pageRepo.InsertSections(ctx, page.ID, sections); err != nil {
		t.Fatalf("InsertSections: %v", err)
	}
	items := []models.ActivityItem{{Title: "Chess club", Pos: 0, DescriptionID: "vanished"}}
	if err := pageRepo.InsertActivities(ctx, page.ID, items); err != nil {
		t.Fatalf("InsertActivities: %v", err)
	}

	html, err := resolver.ResolveID(ctx, page.ID)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if !strings.Contains(html, "Chess club") {
		t.Fatalf("item with missing description dropped: %s", html)
	}
	if !strings.Contains(html, "<p></p>") {
		t.Fatalf("missing description should degrade to an empty paragraph: %s", html)
	}
}
