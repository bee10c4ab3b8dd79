package handler

import (
	"net/http"

	"github.com/filesmanager/filesmanager/internal/ctxkeys"
	"github.com/filesmanager/filesmanager/internal/service"
	"github.com/filesmanager/filesmanager/internal/validation"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input validation.UserInput
	if !decodeJSON(w, r, 1<<20, &input) {
		return
	}

	user, err := h.userService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Response())
}

func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Response())
}
