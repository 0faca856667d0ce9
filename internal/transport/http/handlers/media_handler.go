package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	mediasvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/media"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/dto"
	httperrors "github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/errors"
)

const maxMediaUploadSize = 64 << 20 // 64 MiB

type MediaHandler struct {
	media  *mediasvc.Service
	access *accesssvc.Service
}

func NewMediaHandler(media *mediasvc.Service, access *accesssvc.Service) *MediaHandler {
	return &MediaHandler{media: media, access: access}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.media == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMediaUploadSize)
	if err := r.ParseMultipartForm(maxMediaUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object, err := h.media.Upload(r.Context(), mediasvc.UploadRequest{
		UploaderID:  identity.UserID,
		ContentType: contentType,
		Body:        file,
		SizeBytes:   header.Size,
	})
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MediaUploadResponse{
		ID:          object.ID,
		ContentType: object.ContentType,
		SizeBytes:   object.SizeBytes,
	})
}

// Fetch consumes one view of the caller's grant and answers with a
// short-lived signed URL.
func (h *MediaHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.access == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	mediaID, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	if err != nil || mediaID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid media id")
		return
	}

	res, err := h.access.Fetch(r.Context(), mediaID, identity.UserID)
	if err != nil {
		handleAccessError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MediaFetchResponse{
		URL:         res.URL,
		ContentType: res.ContentType,
		Views:       res.Views,
		MaxViews:    res.MaxViews,
		ExpiresAt:   res.ExpiresAt,
	})
}

func handleMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid media request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "media operation failed")
	}
}

func handleAccessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accesssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid access request")
	case errors.Is(err, accesssvc.ErrMediaNotFound):
		writeNotFound(w, "MEDIA_NOT_FOUND", "media object not found")
	case errors.Is(err, accesssvc.ErrGrantNotFound):
		writeForbidden(w, "NO_GRANT", "no access grant for this media")
	case errors.Is(err, accesssvc.ErrGrantExpired):
		writeForbidden(w, "GRANT_EXPIRED", "access grant expired")
	case errors.Is(err, accesssvc.ErrViewsExhausted):
		writeForbidden(w, "VIEWS_EXHAUSTED", "view allowance exhausted")
	default:
		writeInternal(w, "INTERNAL_ERROR", "access operation failed")
	}
}
