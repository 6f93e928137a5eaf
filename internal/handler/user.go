package handler

import (
	"net/http"

	"github.com/authflow/authflow-go/internal/middleware"
	"github.com/authflow/authflow-go/internal/model"
	"github.com/authflow/authflow-go/internal/service"
)

// UserHandler serves profile reads for the authenticated user.
type UserHandler struct {
	service *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleGetUserData handles GET /user/data requests.
func (h *UserHandler) HandleGetUserData(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, middleware.ErrNotAuthorized)
		return
	}

	data, err := h.service.GetUserData(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UserDataResponse{Success: true, UserData: data})
}
