package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	contentRepo "parishcms/internal/domain/repositories/content"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/richtext"
)

// renderWarningEvent is the operator-facing event name for every render
// degradation. Degradations are never errors; they are always resolved by
// the fallback chain and reported through this event.
const renderWarningEvent = "editor.render.warning"

// documentService implements the DocumentService interface.
type documentService struct {
	docRepo contentRepo.DocumentRepository
	logger  *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(docRepo contentRepo.DocumentRepository, logger *slog.Logger) contentSvc.DocumentService {
	return &documentService{
		docRepo: docRepo,
		logger:  logger,
	}
}

// Get loads a document and validates its stored HTML before returning it.
// Invalid markup is never served: it is regenerated from the structured
// JSON, and if that is unparseable too the HTML degrades to a single empty
// paragraph. Absence of a row is the only nil result and never an error.
func (s *documentService) Get(ctx context.Context, slug, documentID string) (*models.NamedDocument, models.LoadState, error) {
	doc, err := s.docRepo.Get(ctx, slug, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, models.LoadMissing, nil
		}
		return nil, models.LoadMissing, err
	}

	profile := richtext.ProfileByName(doc.Profile)

	if err := richtext.ValidateStoredHTML(doc.ContentHTML, profile); err == nil {
		return doc, models.LoadValid, nil
	}

	s.warn(doc.DocumentID, richtext.ReasonStoredHTMLInvalid, "")

	parsed, perr := richtext.ParseDocument(doc.ContentJSON)
	if perr != nil {
		s.warn(doc.DocumentID, richtext.ReasonContentJSONInvalid, "")
		doc.ContentHTML = "<p></p>"
		return doc, models.LoadRegenerated, nil
	}

	res := richtext.Render(parsed, profile)
	for _, w := range res.Warnings {
		s.warn(doc.DocumentID, w.Reason, w.NodeType)
	}

	doc.ContentHTML = res.HTML
	return doc, models.LoadRegenerated, nil
}

// Put renders the submitted JSON and upserts the document. The persisted
// HTML is always the fresh render.
func (s *documentService) Put(ctx context.Context, slug, documentID, profile string, contentJSON json.RawMessage) (*models.NamedDocument, error) {
	parsed, err := richtext.ParseDocument(contentJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", domain.ErrValidation, documentID, err)
	}

	res := richtext.Render(parsed, richtext.ProfileByName(profile))
	for _, w := range res.Warnings {
		s.warn(documentID, w.Reason, w.NodeType)
	}

	doc := &models.NamedDocument{
		Slug:        slug,
		DocumentID:  documentID,
		Profile:     profile,
		ContentJSON: contentJSON,
		ContentHTML: res.HTML,
	}

	if err := s.docRepo.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) warn(documentID, reason, nodeType string) {
	attrs := []interface{}{
		"event", renderWarningEvent,
		"reason", reason,
		"document_id", documentID,
	}
	if nodeType != "" {
		attrs = append(attrs, "node_type", nodeType)
	}
	s.logger.Warn(renderWarningEvent, attrs...)
}
