package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	bottlesvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/bottles"
	journalsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/journal"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/services/opening"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/dto"
	httperrors "github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/errors"
)

type BottleHandler struct {
	bottles *bottlesvc.Service
	journal *journalsvc.Service
}

func NewBottleHandler(bottles *bottlesvc.Service, journal *journalsvc.Service) *BottleHandler {
	return &BottleHandler{bottles: bottles, journal: journal}
}

func (h *BottleHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.bottles == nil {
		writeInternal(w, "BOTTLE_SERVICE_UNAVAILABLE", "bottle service is unavailable")
		return
	}

	var req dto.BottleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	content := make([]model.ContentBlock, 0, len(req.Content))
	for _, block := range req.Content {
		content = append(content, model.ContentBlock{
			Kind:    enums.BlockKind(block.Kind),
			Text:    block.Text,
			MediaID: block.MediaID,
		})
	}

	bottle, err := h.bottles.Create(r.Context(), bottlesvc.CreateRequest{
		CreatorID:   identity.UserID,
		RecipientID: req.RecipientID,
		Name:        req.Name,
		Content:     content,
		MoodText:    req.MoodText,
	})
	if err != nil {
		handleBottleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, bottleResponse(bottle))
}

func (h *BottleHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.bottles == nil {
		writeInternal(w, "BOTTLE_SERVICE_UNAVAILABLE", "bottle service is unavailable")
		return
	}

	bottles, err := h.bottles.ListByCreator(r.Context(), identity.UserID)
	if err != nil {
		handleBottleError(w, err)
		return
	}

	items := make([]dto.BottleResponse, 0, len(bottles))
	for _, bottle := range bottles {
		items = append(items, bottleResponse(bottle))
	}

	httperrors.Write(w, http.StatusOK, dto.BottleListResponse{Items: items})
}

// Open opens a specific bottle by id with a fresh journal entry,
// skipping selection.
func (h *BottleHandler) Open(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.journal == nil {
		writeInternal(w, "JOURNAL_SERVICE_UNAVAILABLE", "journal service is unavailable")
		return
	}

	bottleID, err := strconv.ParseInt(chi.URLParam(r, "bottleID"), 10, 64)
	if err != nil || bottleID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid bottle id")
		return
	}

	var req dto.BottleOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.journal.OpenTarget(r.Context(), journalsvc.SubmitRequest{
		UserID: identity.UserID,
		Role:   identity.Role,
		Text:   req.Text,
	}, bottleID)
	if err != nil {
		handleOpenError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BottleOpenResponse{
		Journal: journalEntryResponse(res.Journal),
		Bottle:  bottleResponse(res.Bottle),
	})
}

func handleBottleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bottlesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid bottle request")
	case errors.Is(err, bottlesvc.ErrMediaNotFound):
		writeBadRequest(w, "MEDIA_NOT_FOUND", "referenced media object does not exist")
	default:
		writeInternal(w, "INTERNAL_ERROR", "bottle operation failed")
	}
}

func handleOpenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, opening.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid open request")
	case errors.Is(err, opening.ErrBottleNotFound):
		writeNotFound(w, "BOTTLE_NOT_FOUND", "bottle not found")
	case errors.Is(err, opening.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "bottle is not addressed to you")
	case errors.Is(err, opening.ErrAlreadyOpened):
		writeConflict(w, "ALREADY_OPENED", "bottle was already opened")
	case errors.Is(err, opening.ErrDailyLimit):
		writeConflict(w, "DAILY_LIMIT_REACHED", "today's bottle is already open")
	default:
		writeInternal(w, "INTERNAL_ERROR", "open operation failed")
	}
}

func bottleResponse(bottle model.Bottle) dto.BottleResponse {
	content := make([]dto.ContentBlockPayload, 0, len(bottle.Content))
	for _, block := range bottle.Content {
		content = append(content, dto.ContentBlockPayload{
			Kind:    string(block.Kind),
			Text:    block.Text,
			MediaID: block.MediaID,
		})
	}

	return dto.BottleResponse{
		ID:          bottle.ID,
		Name:        bottle.Name,
		RecipientID: bottle.RecipientID,
		Content:     content,
		MoodText:    bottle.MoodText,
		CreatedAt:   bottle.CreatedAt,
	}
}
