package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/auth"
	userssvc "github.com/Olof-Tingskull/lovisa-bottles/internal/services/users"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/dto"
	httperrors "github.com/Olof-Tingskull/lovisa-bottles/internal/transport/http/errors"
)

type MeHandler struct {
	users *userssvc.Service
}

func NewMeHandler(users *userssvc.Service) *MeHandler {
	return &MeHandler{users: users}
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.users == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	user, err := h.users.Get(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, userssvc.ErrUserNotFound) {
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "user lookup failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MeResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
}
