package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"parishcms/internal/domain"
	models "parishcms/internal/domain/models/content"
	contentSvc "parishcms/internal/domain/services/content"
	"parishcms/internal/httputil"
	"parishcms/internal/richtext"
)

// PageAdminHandler handles the editor's page mutation requests.
type PageAdminHandler struct {
	saveService contentSvc.SaveService
	pageService contentSvc.PageService
	resolver    contentSvc.ResolverService
	sanitizer   *richtext.InlineSanitizer
	logger      *slog.Logger
}

// NewPageAdminHandler creates a new admin page handler.
func NewPageAdminHandler(
	saveService contentSvc.SaveService,
	pageService contentSvc.PageService,
	resolver contentSvc.ResolverService,
	logger *slog.Logger,
) *PageAdminHandler {
	return &PageAdminHandler{
		saveService: saveService,
		pageService: pageService,
		resolver:    resolver,
		sanitizer:   richtext.NewInlineSanitizer(),
		logger:      logger,
	}
}

// SavePage commits one aggregate page submission as a new preview version.
// POST /admin/pages/{slug}
// Accepts JSON or form-encoded bodies. Form submissions carrying the
// redirect flag get a 303 to the preview view; everything else gets
// {page_id, version} JSON.
func (h *PageAdminHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page slug is required")
		return
	}

	var (
		cmd      *contentSvc.SaveCommand
		redirect bool
	)
	if httputil.WantsJSON(r) && !formEncoded(r) {
		cmd = &contentSvc.SaveCommand{}
		if err := httputil.ParseJSON(w, r, cmd); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var err error
		cmd, redirect, err = parseSaveForm(r)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	cmd.Slug = slug

	result, err := h.saveService.SavePage(r.Context(), cmd)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	if redirect {
		http.Redirect(w, r, "/admin/pages/"+slug+"/preview", http.StatusSeeOther)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// Publish promotes the latest preview version to the published snapshot.
// POST /admin/pages/{slug}/publish
func (h *PageAdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page slug is required")
		return
	}

	result, err := h.pageService.Publish(r.Context(), slug)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// AddItem appends one activity/event to the current preview page and
// returns the rendered item fragment for in-place insertion.
// POST /admin/pages/{pageID}/items
func (h *PageAdminHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("pageID")
	if pageID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page id is required")
		return
	}

	var cmd contentSvc.AddItemCommand
	if httputil.WantsJSON(r) && !formEncoded(r) {
		if err := httputil.ParseJSON(w, r, &cmd); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		cmd = contentSvc.AddItemCommand{
			Kind:          models.ItemKind(r.PostFormValue("kind")),
			Title:         r.PostFormValue("title"),
			StartDate:     r.PostFormValue("start_date"),
			DescriptionID: r.PostFormValue("description_id"),
			Description:   r.PostFormValue("description"),
		}
	}
	cmd.PageID = pageID

	itemID, err := h.saveService.AddItem(r.Context(), &cmd)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}

	httputil.RespondHTML(w, http.StatusOK, h.itemFragment(itemID, &cmd))
}

// DeleteItem removes one item from its preview page.
// DELETE /admin/items/{itemID}?kind=activity|event
func (h *PageAdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemID")
	if itemID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item id is required")
		return
	}
	kind := models.ItemKind(r.URL.Query().Get("kind"))
	if kind != models.ItemActivity && kind != models.ItemEvent {
		httputil.RespondError(w, http.StatusBadRequest, "kind must be activity or event")
		return
	}

	if err := h.saveService.DeleteItem(r.Context(), kind, itemID); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"deleted": itemID})
}

type reorderRequest struct {
	Kind models.ItemKind `json:"kind"`
	IDs  []string        `json:"ids"`
}

// ReorderItems rewrites item positions to match the supplied id order.
// POST /admin/pages/{pageID}/items/reorder
func (h *PageAdminHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("pageID")
	if pageID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page id is required")
		return
	}

	var req reorderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind != models.ItemActivity && req.Kind != models.ItemEvent {
		httputil.RespondError(w, http.StatusBadRequest, "kind must be activity or event")
		return
	}
	if len(req.IDs) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	if err := h.saveService.ReorderItems(r.Context(), pageID, req.Kind, req.IDs); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"reordered": len(req.IDs)})
}

// Preview serves the latest preview version's HTML.
// GET /admin/pages/{slug}/preview
func (h *PageAdminHandler) Preview(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page slug is required")
		return
	}

	html, err := h.resolver.Preview(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "no preview version for this page")
			return
		}
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondHTML(w, http.StatusOK, html)
}

// itemFragment renders the list-item markup the editor splices into the
// open page, mirroring the resolver's public item markup.
func (h *PageAdminHandler) itemFragment(itemID string, cmd *contentSvc.AddItemCommand) string {
	description := h.sanitizer.Sanitize(cmd.Description)
	if cmd.Kind == models.ItemEvent && cmd.StartDate != "" {
		return fmt.Sprintf(`<li data-item-id="%s"><time datetime="%s">%s</time><h3>%s</h3>%s</li>`,
			richtext.Escape(itemID),
			richtext.Escape(cmd.StartDate),
			richtext.Escape(cmd.StartDate),
			richtext.Escape(cmd.Title),
			description,
		)
	}
	return fmt.Sprintf(`<li data-item-id="%s"><h3>%s</h3>%s</li>`,
		richtext.Escape(itemID),
		richtext.Escape(cmd.Title),
		description,
	)
}
