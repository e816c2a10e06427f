package content

import (
	"context"
	"errors"
	"testing"

	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
)

func TestPublishPromotesLatestPreview(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()

	saved, err := f.save.SavePage(ctx, landingCommand(t))
	if err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	published, err := f.pages.Publish(ctx, "landing")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.Version != saved.Version {
		t.Fatalf("published version = %d, want the preview's %d", published.Version, saved.Version)
	}
	if published.PageID == saved.PageID {
		t.Fatal("publish must insert a copy, not repoint the preview row")
	}

	page, err := f.pages.Published(ctx, "landing")
	if err != nil {
		t.Fatalf("Published: %v", err)
	}
	if page.Status != models.StatusPublished {
		t.Fatalf("status = %s, want published", page.Status)
	}
	if len(page.Sections) != 3 || len(page.Activities) != 2 || len(page.Events) != 1 {
		t.Fatalf("published snapshot incomplete: sections=%d activities=%d events=%d",
			len(page.Sections), len(page.Activities), len(page.Events))
	}
}

func TestPublishSnapshotIsolatedFromLaterEdits(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if _, err := f.pages.Publish(ctx, "landing"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	before, _ := f.pages.Published(ctx, "landing")

	// A later preview save must not reach the published snapshot.
	edited := landingCommand(t)
	edited.Title = "Renamed"
	edited.Activities = edited.Activities[:1]
	if _, err := f.save.SavePage(ctx, edited); err != nil {
		t.Fatalf("second SavePage: %v", err)
	}

	after, _ := f.pages.Published(ctx, "landing")
	if after.Title != before.Title || len(after.Activities) != len(before.Activities) {
		t.Fatal("preview edits leaked into the published snapshot")
	}
	if after.Version != before.Version {
		t.Fatalf("published version changed from %d to %d without a publish", before.Version, after.Version)
	}
}

func TestPublishReplacesPriorPublishedSnapshot(t *testing.T) {
	f := newSaveFixture()
	ctx := context.Background()

	if _, err := f.save.SavePage(ctx, landingCommand(t)); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	first, err := f.pages.Publish(ctx, "landing")
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	edited := landingCommand(t)
	edited.Title = "Renamed"
	if _, err := f.save.SavePage(ctx, edited); err != nil {
		t.Fatalf("second SavePage: %v", err)
	}
	second, err := f.pages.Publish(ctx, "landing")
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("second published version = %d, want 2", second.Version)
	}

	// Exactly one published row set remains, and it is the new one.
	page, err := f.pages.Published(ctx, "landing")
	if err != nil {
		t.Fatalf("Published: %v", err)
	}
	if page.ID != second.PageID || page.Title != "Renamed" {
		t.Fatalf("published page = %s %q, want %s Renamed", page.ID, page.Title, second.PageID)
	}
	if _, err := f.pages.ByID(ctx, first.PageID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("old published snapshot must be deleted")
	}
}

func TestPublishWithoutPreview(t *testing.T) {
	f := newSaveFixture()

	_, err := f.pages.Publish(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
