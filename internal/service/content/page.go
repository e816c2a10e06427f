package content

import (
	"context"
	"errors"
	"log/slog"

	"parishcms/internal/cache"
	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	"parishcms/internal/domain/repositories"
	contentRepo "parishcms/internal/domain/repositories/content"
	contentSvc "parishcms/internal/domain/services/content"
)

// pageService implements the PageService interface.
type pageService struct {
	pageRepo  contentRepo.PageRepository
	txManager repositories.TransactionManager
	cache     cache.Cache
	logger    *slog.Logger
}

// NewPageService creates a new page service.
func NewPageService(
	pageRepo contentRepo.PageRepository,
	txManager repositories.TransactionManager,
	c cache.Cache,
	logger *slog.Logger,
) contentSvc.PageService {
	return &pageService{
		pageRepo:  pageRepo,
		txManager: txManager,
		cache:     c,
		logger:    logger,
	}
}

// Publish promotes the latest preview snapshot of a slug to published. The
// copy is deep: new page, section and item rows, so later preview edits can
// never reach already-published output. Replacing the old published row set
// and inserting the new one happen in one transaction; a public reader never
// observes zero published rows mid-publish.
func (s *pageService) Publish(ctx context.Context, slug string) (*contentSvc.SaveResult, error) {
	var result *contentSvc.SaveResult
	var staleIDs []string

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		src, err := s.pageRepo.LatestPreview(txCtx, slug)
		if err != nil {
			return err
		}

		// Remember the outgoing published page id for cache invalidation.
		if old, err := s.pageRepo.Published(txCtx, slug); err == nil {
			staleIDs = append(staleIDs, old.ID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := s.pageRepo.DeletePublished(txCtx, slug); err != nil {
			return err
		}

		published := *src
		published.Status = models.StatusPublished
		published.Sections = nil
		published.Activities = nil
		published.Events = nil
		if err := s.pageRepo.InsertCopy(txCtx, &published); err != nil {
			return err
		}

		if err := s.pageRepo.InsertSections(txCtx, published.ID, cloneSections(src.Sections)); err != nil {
			return err
		}
		if err := s.pageRepo.InsertActivities(txCtx, published.ID, cloneActivities(src.Activities)); err != nil {
			return err
		}
		if err := s.pageRepo.InsertEvents(txCtx, published.ID, cloneEvents(src.Events)); err != nil {
			return err
		}

		staleIDs = append(staleIDs, published.ID, src.ID)
		result = &contentSvc.SaveResult{PageID: published.ID, Version: published.Version}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, slug, staleIDs...)

	s.logger.Info("page published",
		"slug", slug,
		"page_id", result.PageID,
		"version", result.Version,
	)
	return result, nil
}

// LatestPreview returns the highest preview version with children.
func (s *pageService) LatestPreview(ctx context.Context, slug string) (*models.Page, error) {
	return s.pageRepo.LatestPreview(ctx, slug)
}

// Published returns the published version with children.
func (s *pageService) Published(ctx context.Context, slug string) (*models.Page, error) {
	return s.pageRepo.Published(ctx, slug)
}

// ByID returns a page of any status with children.
func (s *pageService) ByID(ctx context.Context, pageID string) (*models.Page, error) {
	return s.pageRepo.ByID(ctx, pageID)
}

func (s *pageService) invalidate(ctx context.Context, slug string, pageIDs ...string) {
	if err := s.cache.Delete(ctx, keysForPage(slug, pageIDs...)...); err != nil {
		// Best-effort: a failed invalidation only delays freshness by the
		// cache TTL.
		s.logger.Warn("cache invalidation failed", "slug", slug, "error", err)
	}
}

// The clones drop row identities so the repository assigns fresh ids to the
// published copies.

func cloneSections(in []models.Section) []models.Section {
	out := make([]models.Section, len(in))
	copy(out, in)
	for i := range out {
		out[i].ID = ""
		out[i].PageID = ""
	}
	return out
}

func cloneActivities(in []models.ActivityItem) []models.ActivityItem {
	out := make([]models.ActivityItem, len(in))
	copy(out, in)
	for i := range out {
		out[i].ID = ""
		out[i].PageID = ""
	}
	return out
}

func cloneEvents(in []models.EventItem) []models.EventItem {
	out := make([]models.EventItem, len(in))
	copy(out, in)
	for i := range out {
		out[i].ID = ""
		out[i].PageID = ""
	}
	return out
}
