package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"parishcms/internal/cache"
	"parishcms/internal/config"
	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	"parishcms/internal/domain/repositories"
	contentRepo "parishcms/internal/domain/repositories/content"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/richtext"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const startDateLayout = "2006-01-02"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// saveService implements the SaveService interface.
type saveService struct {
	pageRepo  contentRepo.PageRepository
	docSvc    contentSvc.DocumentService
	txManager repositories.TransactionManager
	cache     cache.Cache
	sanitizer *richtext.InlineSanitizer
	logger    *slog.Logger
}

// NewSaveService creates a new save coordinator.
func NewSaveService(
	pageRepo contentRepo.PageRepository,
	docSvc contentSvc.DocumentService,
	txManager repositories.TransactionManager,
	c cache.Cache,
	logger *slog.Logger,
) contentSvc.SaveService {
	return &saveService{
		pageRepo:  pageRepo,
		docSvc:    docSvc,
		txManager: txManager,
		cache:     c,
		sanitizer: richtext.NewInlineSanitizer(),
		logger:    logger,
	}
}

// SavePage validates the whole submission, then commits it as one preview
// snapshot. A lost version race is retried once with a freshly computed
// version before surfacing.
func (s *saveService) SavePage(ctx context.Context, cmd *contentSvc.SaveCommand) (*contentSvc.SaveResult, error) {
	if err := s.validateSave(cmd); err != nil {
		return nil, err
	}

	result, err := s.commitSave(ctx, cmd)
	if errors.Is(err, domain.ErrVersionConflict) {
		s.logger.Warn("version conflict, retrying save", "slug", cmd.Slug)
		result, err = s.commitSave(ctx, cmd)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cmd.Slug, result.PageID)

	s.logger.Info("page saved",
		"slug", cmd.Slug,
		"page_id", result.PageID,
		"version", result.Version,
		"sections", len(cmd.Sections),
		"documents", len(cmd.Documents),
	)
	return result, nil
}

// commitSave runs steps 1-4 of a save inside one transaction, so a reader
// never observes a page row without its sections, nor a version number
// whose documents are not yet upserted.
func (s *saveService) commitSave(ctx context.Context, cmd *contentSvc.SaveCommand) (*contentSvc.SaveResult, error) {
	var result *contentSvc.SaveResult

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Step 1: upsert every named sub-document. Iterate in a stable
		// order so failures are deterministic.
		for _, docID := range sortedDocumentIDs(cmd.Documents) {
			input := cmd.Documents[docID]
			if _, err := s.docSvc.Put(txCtx, cmd.Slug, docID, input.Profile, input.ContentJSON); err != nil {
				return err
			}
		}

		// Step 2: new preview version.
		page := &models.Page{
			Slug:             cmd.Slug,
			Title:            cmd.Title,
			HeroImageKey:     cmd.HeroImageKey,
			DonateEnabled:    cmd.DonateEnabled,
			ActivitiesLayout: cmd.ActivitiesLayout,
			EventsHidePast:   cmd.EventsHidePast,
		}
		if err := s.pageRepo.InsertVersion(txCtx, page); err != nil {
			return err
		}

		// Step 3: sections in submitted order.
		if err := s.pageRepo.InsertSections(txCtx, page.ID, s.buildSections(cmd.Sections)); err != nil {
			return err
		}

		// Step 4: ordered item collections, submitted pos preserved.
		if err := s.pageRepo.InsertActivities(txCtx, page.ID, s.buildActivities(cmd.Activities)); err != nil {
			return err
		}
		events, err := s.buildEvents(cmd.Events)
		if err != nil {
			return err
		}
		if err := s.pageRepo.InsertEvents(txCtx, page.ID, events); err != nil {
			return err
		}

		result = &contentSvc.SaveResult{PageID: page.ID, Version: page.Version}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddItem appends one item to an existing preview page at pos = item count.
func (s *saveService) AddItem(ctx context.Context, cmd *contentSvc.AddItemCommand) (string, error) {
	if err := s.validateAddItem(cmd); err != nil {
		return "", err
	}

	page, err := s.pageRepo.ByID(ctx, cmd.PageID)
	if err != nil {
		return "", err
	}
	if page.Status != models.StatusPreview {
		return "", &domain.ValidationError{Message: "items can only be edited on a preview version"}
	}

	count, err := s.pageRepo.ItemCount(ctx, page.ID, cmd.Kind)
	if err != nil {
		return "", err
	}
	if count >= config.MaxItemsPerCollection {
		return "", &domain.ValidationError{Message: fmt.Sprintf("a page holds at most %d %s items", config.MaxItemsPerCollection, cmd.Kind)}
	}

	var itemID string
	switch cmd.Kind {
	case models.ItemActivity:
		item := &models.ActivityItem{
			PageID:          page.ID,
			Title:           cmd.Title,
			Pos:             count,
			DescriptionID:   cmd.DescriptionID,
			DescriptionHTML: s.inlineHTML(cmd.Description),
		}
		if err := s.pageRepo.InsertActivity(ctx, item); err != nil {
			return "", err
		}
		itemID = item.ID
	case models.ItemEvent:
		startDate, err := time.Parse(startDateLayout, cmd.StartDate)
		if err != nil {
			return "", &domain.ValidationError{Message: "invalid start_date", Fields: map[string]string{"start_date": "must be formatted as " + startDateLayout}}
		}
		item := &models.EventItem{
			PageID:          page.ID,
			Title:           cmd.Title,
			Pos:             count,
			StartDate:       startDate,
			DescriptionID:   cmd.DescriptionID,
			DescriptionHTML: s.inlineHTML(cmd.Description),
		}
		if err := s.pageRepo.InsertEvent(ctx, item); err != nil {
			return "", err
		}
		itemID = item.ID
	default:
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown item kind %q", cmd.Kind)}
	}

	s.invalidate(ctx, page.Slug, page.ID)
	return itemID, nil
}

// DeleteItem removes one item from its preview page. Items on a published
// snapshot are immutable; the owning page's status is checked before any
// row is touched.
func (s *saveService) DeleteItem(ctx context.Context, kind models.ItemKind, itemID string) error {
	pageID, err := s.pageRepo.ItemPage(ctx, kind, itemID)
	if err != nil {
		return err
	}
	page, err := s.pageRepo.ByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page.Status != models.StatusPreview {
		return &domain.ValidationError{Message: "items can only be edited on a preview version"}
	}

	if _, err := s.pageRepo.DeleteItem(ctx, kind, itemID); err != nil {
		return err
	}

	s.invalidate(ctx, page.Slug, page.ID)
	return nil
}

// ReorderItems rewrites pos for exactly the supplied ids. The rewrites run
// in one transaction so a concurrent reader never sees a half-applied order.
func (s *saveService) ReorderItems(ctx context.Context, pageID string, kind models.ItemKind, ids []string) error {
	if len(ids) == 0 {
		return &domain.ValidationError{Message: "no item ids supplied"}
	}

	page, err := s.pageRepo.ByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page.Status != models.StatusPreview {
		return &domain.ValidationError{Message: "items can only be edited on a preview version"}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.pageRepo.ReorderItems(txCtx, pageID, kind, ids)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, page.Slug, page.ID)
	return nil
}

func (s *saveService) buildSections(inputs []contentSvc.SectionInput) []models.Section {
	sections := make([]models.Section, 0, len(inputs))
	for _, in := range inputs {
		sections = append(sections, models.Section{
			Kind:        in.Kind,
			Pos:         in.Pos,
			ContentHTML: s.inlineHTML(in.ContentHTML),
			ContentJSON: in.ContentJSON,
			ContentID:   in.ContentID,
		})
	}
	return sections
}

func (s *saveService) buildActivities(inputs []contentSvc.ItemInput) []models.ActivityItem {
	items := make([]models.ActivityItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, models.ActivityItem{
			Title:           in.Title,
			Pos:             in.Pos,
			DescriptionID:   in.DescriptionID,
			DescriptionHTML: s.inlineHTML(in.Description),
		})
	}
	return items
}

func (s *saveService) buildEvents(inputs []contentSvc.ItemInput) ([]models.EventItem, error) {
	items := make([]models.EventItem, 0, len(inputs))
	for _, in := range inputs {
		startDate, err := time.Parse(startDateLayout, in.StartDate)
		if err != nil {
			// Validation catches this before the transaction starts;
			// reaching it here still aborts the whole save.
			return nil, &domain.ValidationError{Message: fmt.Sprintf("event %q: invalid start_date", in.Title)}
		}
		items = append(items, models.EventItem{
			Title:           in.Title,
			Pos:             in.Pos,
			StartDate:       startDate,
			DescriptionID:   in.DescriptionID,
			DescriptionHTML: s.inlineHTML(in.Description),
		})
	}
	return items, nil
}

// inlineHTML sanitizes admin-supplied inline markup. Empty stays empty.
func (s *saveService) inlineHTML(html string) string {
	if html == "" {
		return ""
	}
	return s.sanitizer.Sanitize(html)
}

func (s *saveService) invalidate(ctx context.Context, slug string, pageIDs ...string) {
	if err := s.cache.Delete(ctx, keysForPage(slug, pageIDs...)...); err != nil {
		s.logger.Warn("cache invalidation failed", "slug", slug, "error", err)
	}
}

func sortedDocumentIDs(docs map[string]contentSvc.DocumentInput) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// validateSave checks the aggregate command as one unit before any store
// mutation, so a partial save is structurally impossible.
func (s *saveService) validateSave(cmd *contentSvc.SaveCommand) error {
	err := validation.ValidateStruct(cmd,
		validation.Field(&cmd.Slug,
			validation.Required,
			validation.Length(1, config.MaxSlugLength),
			validation.Match(slugPattern).Error("must be a lowercase slug"),
		),
		validation.Field(&cmd.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
		validation.Field(&cmd.Sections,
			validation.Length(0, config.MaxSectionsPerPage),
			validation.By(validateSections),
		),
		validation.Field(&cmd.Activities,
			validation.Length(0, config.MaxItemsPerCollection),
			validation.By(validateItems(models.ItemActivity)),
		),
		validation.Field(&cmd.Events,
			validation.Length(0, config.MaxItemsPerCollection),
			validation.By(validateItems(models.ItemEvent)),
		),
		validation.Field(&cmd.Documents, validation.By(validateDocuments)),
	)
	if err == nil {
		if missing := danglingDescriptionIDs(cmd); missing != "" {
			return &domain.ValidationError{
				Message: "unknown description_id " + missing,
				Fields:  map[string]string{"description_id": missing + " has no matching document"},
			}
		}
		return nil
	}

	return asValidationError(err)
}

func (s *saveService) validateAddItem(cmd *contentSvc.AddItemCommand) error {
	err := validation.ValidateStruct(cmd,
		validation.Field(&cmd.PageID, validation.Required),
		validation.Field(&cmd.Kind, validation.Required, validation.In(models.ItemActivity, models.ItemEvent)),
		validation.Field(&cmd.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&cmd.StartDate,
			validation.Required.When(cmd.Kind == models.ItemEvent),
			validation.Date(startDateLayout),
		),
	)
	if err != nil {
		return asValidationError(err)
	}
	return nil
}

func validateSections(value interface{}) error {
	sections, _ := value.([]contentSvc.SectionInput)
	for i, sec := range sections {
		if sec.Kind == "" {
			return fmt.Errorf("section %d: kind is required", i)
		}
		// Collection sections draw their content from the item lists and
		// may be submitted bare.
		if sec.Kind == models.SectionActivities || sec.Kind == models.SectionEvents {
			continue
		}
		if sec.ContentID == "" && sec.ContentHTML == "" && len(sec.ContentJSON) == 0 {
			return fmt.Errorf("section %d: content or content_id is required", i)
		}
	}
	return nil
}

func validateItems(kind models.ItemKind) validation.RuleFunc {
	return func(value interface{}) error {
		items, _ := value.([]contentSvc.ItemInput)
		for i, item := range items {
			if item.Title == "" {
				return fmt.Errorf("item %d: title is required", i)
			}
			if kind == models.ItemEvent {
				if _, err := time.Parse(startDateLayout, item.StartDate); err != nil {
					return fmt.Errorf("item %d: start_date must be formatted as %s", i, startDateLayout)
				}
			}
		}
		return nil
	}
}

func validateDocuments(value interface{}) error {
	docs, _ := value.(map[string]contentSvc.DocumentInput)
	for id, doc := range docs {
		if doc.Profile == "" {
			return fmt.Errorf("document %s: profile is required", id)
		}
		if _, err := richtext.ParseDocument(doc.ContentJSON); err != nil {
			return fmt.Errorf("document %s: content_json is not a structured document", id)
		}
	}
	return nil
}

// danglingDescriptionIDs returns the first description_id that references a
// document the submission does not carry and the store cannot be assumed to
// have.
func danglingDescriptionIDs(cmd *contentSvc.SaveCommand) string {
	for _, item := range append(append([]contentSvc.ItemInput{}, cmd.Activities...), cmd.Events...) {
		if item.DescriptionID == "" {
			continue
		}
		if _, ok := cmd.Documents[item.DescriptionID]; !ok {
			return item.DescriptionID
		}
	}
	return ""
}

func asValidationError(err error) error {
	fields := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	}
	return &domain.ValidationError{Message: err.Error(), Fields: fields}
}
