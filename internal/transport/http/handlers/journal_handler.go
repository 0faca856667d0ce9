package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	journalsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/journal"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/opening"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/rate"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/selection"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/dto"
	httperrors "github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/errors"
)

type JournalHandler struct {
	service *journalsvc.Service
}

func NewJournalHandler(service *journalsvc.Service) *JournalHandler {
	return &JournalHandler{service: service}
}

func (h *JournalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "JOURNAL_SERVICE_UNAVAILABLE", "journal service is unavailable")
		return
	}

	var req dto.JournalSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Submit(r.Context(), journalsvc.SubmitRequest{
		UserID: identity.UserID,
		Role:   identity.Role,
		Text:   req.Text,
	})
	if err != nil {
		handleJournalError(w, err)
		return
	}

	payload := dto.JournalSubmitResponse{
		Outcome: string(res.Outcome),
		Journal: journalEntryResponse(res.Journal),
		Message: res.Message,
	}
	if res.Bottle != nil {
		bottle := bottleResponse(*res.Bottle)
		payload.Bottle = &bottle
	}

	httperrors.Write(w, http.StatusOK, payload)
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "JOURNAL_SERVICE_UNAVAILABLE", "journal service is unavailable")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListEntries(r.Context(), identity.UserID, limit)
	if err != nil {
		handleJournalError(w, err)
		return
	}

	items := make([]dto.JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, journalEntryResponse(entry))
	}

	httperrors.Write(w, http.StatusOK, dto.JournalListResponse{Items: items})
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "JOURNAL_SERVICE_UNAVAILABLE", "journal service is unavailable")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil || entryID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid entry id")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), identity.UserID, entryID); err != nil {
		handleJournalError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.JournalDeleteResponse{OK: true})
}

func handleJournalError(w http.ResponseWriter, err error) {
	var limited rate.ErrRateLimited
	var upstream selection.UpstreamError
	switch {
	case errors.Is(err, journalsvc.ErrValidation), errors.Is(err, selection.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid journal request")
	case errors.Is(err, journalsvc.ErrEntryNotFound):
		writeNotFound(w, "ENTRY_NOT_FOUND", "journal entry not found")
	case errors.Is(err, opening.ErrAlreadyOpened):
		writeConflict(w, "ALREADY_OPENED", "bottle is already open")
	case errors.As(err, &limited):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many submissions",
			RetryAfterSec: int64(limited.RetryAfter.Seconds()),
		})
	case errors.As(err, &upstream):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "UPSTREAM_UNAVAILABLE",
			Message: "matching is temporarily unavailable",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "journal operation failed")
	}
}

func journalEntryResponse(entry model.JournalEntry) dto.JournalEntryResponse {
	return dto.JournalEntryResponse{
		ID:        entry.ID,
		Body:      entry.Body,
		CreatedAt: entry.CreatedAt,
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
