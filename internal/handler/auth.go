package handler

import (
	"errors"
	"net/http"

	"github.com/filesmanager/filesmanager/internal/ctxkeys"
	"github.com/filesmanager/filesmanager/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Connect exchanges Basic credentials for a session token.
func (h *authHandler) Connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok || email == "" || password == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.authService.Login(r.Context(), email, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Disconnect revokes the session token of the request.
func (h *authHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	err := h.authService.Logout(r.Context(), ctxkeys.Token(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
