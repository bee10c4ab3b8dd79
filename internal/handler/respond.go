package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/service"
	"github.com/filesmanager/filesmanager/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service and repository errors to a status and a
// client-facing message. Unknown errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, repository.ErrFileNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrFolderHasNoContent):
		writeError(w, http.StatusBadRequest, service.ErrFolderHasNoContent.Error())
	case errors.Is(err, service.ErrStorageWrite):
		writeError(w, http.StatusBadRequest, service.ErrStorageWrite.Error())
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body of at most maxBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
