package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	accesssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/access"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/dto"
	httperrors "github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/errors"
)

type AccessHandler struct {
	service *accesssvc.Service
}

func NewAccessHandler(service *accesssvc.Service) *AccessHandler {
	return &AccessHandler{service: service}
}

func (h *AccessHandler) Grant(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	var req dto.AccessGrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	grant, err := h.service.Grant(r.Context(), req.MediaID, req.UserID, req.MaxViews, req.ExpiresAt)
	if err != nil {
		handleAccessError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, grantResponse(grant))
}

func (h *AccessHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	var req dto.AccessRevokeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.Revoke(r.Context(), req.MediaID, req.UserID); err != nil {
		handleAccessError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AccessRevokeResponse{OK: true})
}

func (h *AccessHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ACCESS_SERVICE_UNAVAILABLE", "access service is unavailable")
		return
	}

	mediaID, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	if err != nil || mediaID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid media id")
		return
	}

	grants, err := h.service.List(r.Context(), mediaID)
	if err != nil {
		handleAccessError(w, err)
		return
	}

	items := make([]dto.AccessGrantResponse, 0, len(grants))
	for _, grant := range grants {
		items = append(items, grantResponse(grant))
	}

	httperrors.Write(w, http.StatusOK, dto.AccessListResponse{Items: items})
}

func grantResponse(grant model.AccessGrant) dto.AccessGrantResponse {
	return dto.AccessGrantResponse{
		MediaID:   grant.MediaID,
		UserID:    grant.UserID,
		Views:     grant.Views,
		MaxViews:  grant.MaxViews,
		ExpiresAt: grant.ExpiresAt,
		GrantedAt: grant.GrantedAt,
	}
}
