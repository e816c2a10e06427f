package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	"parishcms/internal/domain/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

// fakeTxManager runs the function directly. The fakes mutate state in
// place, so commit/rollback semantics are not modelled; tests that care
// about atomicity assert on the absence of writes instead.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*models.NamedDocument
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]*models.NamedDocument{}}
}

func docKey(slug, documentID string) string { return slug + "/" + documentID }

func (r *fakeDocRepo) Get(ctx context.Context, slug, documentID string) (*models.NamedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docKey(slug, documentID)]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) Upsert(ctx context.Context, doc *models.NamedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	copied.UpdatedAt = time.Now()
	r.docs[docKey(doc.Slug, doc.DocumentID)] = &copied
	return nil
}

// put seeds a raw row, bypassing the render pipeline, for tamper scenarios.
func (r *fakeDocRepo) put(doc *models.NamedDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[docKey(doc.Slug, doc.DocumentID)] = &copied
}

type fakePageRepo struct {
	mu     sync.Mutex
	pages  map[string]*models.Page
	nextID int

	// conflictsRemaining makes InsertVersion fail with ErrVersionConflict
	// that many times before succeeding.
	conflictsRemaining int
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{pages: map[string]*models.Page{}}
}

func (r *fakePageRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func clonePage(p *models.Page) *models.Page {
	copied := *p
	copied.Sections = append([]models.Section(nil), p.Sections...)
	copied.Activities = append([]models.ActivityItem(nil), p.Activities...)
	copied.Events = append([]models.EventItem(nil), p.Events...)
	return &copied
}

func (r *fakePageRepo) InsertVersion(ctx context.Context, page *models.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsRemaining > 0 {
		r.conflictsRemaining--
		return domain.ErrVersionConflict
	}
	version := 0
	for _, p := range r.pages {
		if p.Slug == page.Slug && p.Version > version {
			version = p.Version
		}
	}
	page.ID = r.id("page")
	page.Version = version + 1
	page.Status = models.StatusPreview
	page.CreatedAt = time.Now()
	r.pages[page.ID] = clonePage(page)
	return nil
}

func (r *fakePageRepo) InsertCopy(ctx context.Context, page *models.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the store's per-status uniqueness: the published copy may
	// share its source preview's version but not collide within a status.
	for _, p := range r.pages {
		if p.Slug == page.Slug && p.Version == page.Version && p.Status == page.Status {
			return domain.ErrVersionConflict
		}
	}
	page.ID = r.id("page")
	r.pages[page.ID] = clonePage(page)
	return nil
}

func (r *fakePageRepo) DeletePublished(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pages {
		if p.Slug == slug && p.Status == models.StatusPublished {
			delete(r.pages, id)
		}
	}
	return nil
}

func (r *fakePageRepo) InsertSections(ctx context.Context, pageID string, sections []models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, sec := range sections {
		sec.ID = r.id("section")
		sec.PageID = pageID
		page.Sections = append(page.Sections, sec)
	}
	return nil
}

func (r *fakePageRepo) InsertActivities(ctx context.Context, pageID string, items []models.ActivityItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, item := range items {
		item.ID = r.id("activity")
		item.PageID = pageID
		page.Activities = append(page.Activities, item)
	}
	return nil
}

func (r *fakePageRepo) InsertEvents(ctx context.Context, pageID string, items []models.EventItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, item := range items {
		item.ID = r.id("event")
		item.PageID = pageID
		page.Events = append(page.Events, item)
	}
	return nil
}

func (r *fakePageRepo) LatestPreview(ctx context.Context, slug string) (*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.Page
	for _, p := range r.pages {
		if p.Slug == slug && p.Status == models.StatusPreview {
			if best == nil || p.Version > best.Version {
				best = p
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no preview for %s: %w", slug, domain.ErrNotFound)
	}
	return clonePage(best), nil
}

func (r *fakePageRepo) Published(ctx context.Context, slug string) (*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pages {
		if p.Slug == slug && p.Status == models.StatusPublished {
			return clonePage(p), nil
		}
	}
	return nil, fmt.Errorf("nothing published for %s: %w", slug, domain.ErrNotFound)
}

func (r *fakePageRepo) ByID(ctx context.Context, pageID string) (*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("page %s: %w", pageID, domain.ErrNotFound)
	}
	return clonePage(page), nil
}

func (r *fakePageRepo) ItemCount(ctx context.Context, pageID string, kind models.ItemKind) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if kind == models.ItemEvent {
		return len(page.Events), nil
	}
	return len(page.Activities), nil
}

func (r *fakePageRepo) InsertActivity(ctx context.Context, item *models.ActivityItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[item.PageID]
	if !ok {
		return domain.ErrNotFound
	}
	item.ID = r.id("activity")
	page.Activities = append(page.Activities, *item)
	return nil
}

func (r *fakePageRepo) InsertEvent(ctx context.Context, item *models.EventItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[item.PageID]
	if !ok {
		return domain.ErrNotFound
	}
	item.ID = r.id("event")
	page.Events = append(page.Events, *item)
	return nil
}

func (r *fakePageRepo) ItemPage(ctx context.Context, kind models.ItemKind, itemID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, page := range r.pages {
		if kind == models.ItemEvent {
			for _, item := range page.Events {
				if item.ID == itemID {
					return page.ID, nil
				}
			}
		} else {
			for _, item := range page.Activities {
				if item.ID == itemID {
					return page.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
}

func (r *fakePageRepo) DeleteItem(ctx context.Context, kind models.ItemKind, itemID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, page := range r.pages {
		if kind == models.ItemEvent {
			for i, item := range page.Events {
				if item.ID == itemID {
					page.Events = append(page.Events[:i], page.Events[i+1:]...)
					return page.ID, nil
				}
			}
		} else {
			for i, item := range page.Activities {
				if item.ID == itemID {
					page.Activities = append(page.Activities[:i], page.Activities[i+1:]...)
					return page.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
}

func (r *fakePageRepo) ReorderItems(ctx context.Context, pageID string, kind models.ItemKind, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages[pageID]
	if !ok {
		return domain.ErrNotFound
	}
	for pos, id := range ids {
		found := false
		if kind == models.ItemEvent {
			for i := range page.Events {
				if page.Events[i].ID == id {
					page.Events[i].Pos = pos
					found = true
				}
			}
		} else {
			for i := range page.Activities {
				if page.Activities[i].ID == id {
					page.Activities[i].Pos = pos
					found = true
				}
			}
		}
		if !found {
			return fmt.Errorf("item %s not on page: %w", id, domain.ErrValidation)
		}
	}
	return nil
}

// failingCache simulates a down redis. Everything errors.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (string, error) {
	return "", fmt.Errorf("connection refused")
}

func (failingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return fmt.Errorf("connection refused")
}

func (failingCache) Delete(ctx context.Context, keys ...string) error {
	return fmt.Errorf("connection refused")
}
