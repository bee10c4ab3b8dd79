package handler

import (
	"net/http"
	"strconv"

	"github.com/filesmanager/filesmanager/internal/ctxkeys"
	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/service"
	"github.com/filesmanager/filesmanager/internal/validation"
)

type fileHandler struct {
	fileService    *service.FileService
	maxUploadBytes int64
}

func NewFileHandler(fileService *service.FileService, maxUploadBytes int64) *fileHandler {
	return &fileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *fileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var input validation.FileInput
	if !decodeJSON(w, r, h.maxUploadBytes, &input) {
		return
	}

	file, err := h.fileService.Upload(r.Context(), ctxkeys.UserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, file.Response())
}

func (h *fileHandler) Show(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.Show(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, file.Response())
}

func (h *fileHandler) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := service.ParsePage(query.Get("page"))

	files, err := h.fileService.List(r.Context(), ctxkeys.UserID(r.Context()), query.Get("parentId"), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.FileResponses(files))
}

func (h *fileHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h *fileHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *fileHandler) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	file, err := h.fileService.SetVisibility(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), public)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, file.Response())
}

// Data serves raw content. Authentication is optional here: public files
// are readable by anyone.
func (h *fileHandler) Data(w http.ResponseWriter, r *http.Request) {
	content, err := h.fileService.ReadContent(r.Context(), r.PathValue("id"), ctxkeys.UserID(r.Context()), r.URL.Query().Get("size"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Data)
}
