package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/service"
	"github.com/filesmanager/filesmanager/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServiceError(t *testing.T) {
	_, vErr := validation.ValidateUser(validation.UserInput{})
	require.Error(t, vErr)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", vErr, http.StatusBadRequest, `{"error":"Missing email"}`},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"wrapped not found", fmt.Errorf("lookup: %w", repository.ErrFileNotFound), http.StatusNotFound, `{"error":"Not found"}`},
		{"folder", service.ErrFolderHasNoContent, http.StatusBadRequest, `{"error":"A folder doesn't have content"}`},
		{"storage", fmt.Errorf("%w: disk full", service.ErrStorageWrite), http.StatusBadRequest, `{"error":"Cannot write file"}`},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/files", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]string

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@b.c"}`))
	assert.True(t, decodeJSON(rec, req, 1024, &v))
	assert.Equal(t, "a@b.c", v["email"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":`))
	assert.False(t, decodeJSON(rec, req, 1024, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(`{"data":"`+strings.Repeat("a", 64)+`"}`))
	assert.False(t, decodeJSON(rec, req, 16, &v))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
