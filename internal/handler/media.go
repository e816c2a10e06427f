package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"parishcms/internal/domain"
	"parishcms/internal/httputil"
	"parishcms/internal/storage"
)

// maxUploadBytes caps a single media upload.
const maxUploadBytes = 20 << 20

var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// MediaHandler handles media uploads and serving.
type MediaHandler struct {
	store  storage.MediaStore
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(store storage.MediaStore, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger}
}

// Upload stores one uploaded file and returns its key. Pages reference
// media by key only (hero_image_key, figure src), never by raw URL.
// POST /admin/media
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMediaTypes[contentType] {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported media type %q", contentType))
		return
	}

	key := mediaKey(header.Filename)
	if err := h.store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.Error("media upload failed", "key", key, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	h.logger.Info("media uploaded", "key", key, "size", header.Size, "content_type", contentType)
	httputil.RespondJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// Serve streams one media object.
// GET /media/{key...}
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" || strings.Contains(key, "..") {
		httputil.RespondError(w, http.StatusNotFound, "media not found")
		return
	}

	body, contentType, err := h.store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "media not found")
			return
		}
		h.logger.Error("media read failed", "key", key, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Debug("media stream interrupted", "key", key, "error", err)
	}
}

// mediaKey builds a collision-free object key that keeps the original
// extension for content-type inference elsewhere.
func mediaKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "media/" + uuid.NewString() + ext
}
