package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"parishcms/internal/domain"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/httputil"
)

// PublicHandler serves rendered pages to unauthenticated visitors.
type PublicHandler struct {
	resolver contentSvc.ResolverService
	logger   *slog.Logger
}

// NewPublicHandler creates a new public page handler.
func NewPublicHandler(resolver contentSvc.ResolverService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{resolver: resolver, logger: logger}
}

// GetPage serves the published page for a slug.
// GET /pages/{slug}
func (h *PublicHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httputil.RespondError(w, http.StatusNotFound, "page not found")
		return
	}

	html, err := h.resolver.ResolveSlug(r.Context(), slug)
	if err != nil {
		h.respondResolveError(w, r, err)
		return
	}
	httputil.RespondHTML(w, http.StatusOK, html)
}

// GetPageByID serves a page of any status by explicit id. Share links to
// unpublished versions use this; slugs never reach preview content.
// GET /p/{pageID}
func (h *PublicHandler) GetPageByID(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("pageID")
	if pageID == "" {
		httputil.RespondError(w, http.StatusNotFound, "page not found")
		return
	}

	html, err := h.resolver.ResolveID(r.Context(), pageID)
	if err != nil {
		h.respondResolveError(w, r, err)
		return
	}
	httputil.RespondHTML(w, http.StatusOK, html)
}

// HealthCheck reports liveness.
// GET /health
func (h *PublicHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondResolveError keeps public failures to 404 or 500, detail stays in
// the log.
func (h *PublicHandler) respondResolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "page not found")
		return
	}
	h.logger.Error("page resolve failed", "path", r.URL.Path, "error", err)
	httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
}
