package handler

import (
	"net/http"

	"github.com/filesmanager/filesmanager/internal/service"
)

type appHandler struct {
	appService *service.AppService
}

func NewAppHandler(appService *service.AppService) *appHandler {
	return &appHandler{appService: appService}
}

func (h *appHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.appService.Status(r.Context()))
}

func (h *appHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.appService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
