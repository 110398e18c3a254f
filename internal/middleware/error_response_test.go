package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dunamis/faithhub/internal/model"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeUserAlreadyExists, http.StatusConflict},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeInvalidRefreshToken, http.StatusUnauthorized},
		{model.ErrCodeAccessDenied, http.StatusForbidden},
		{model.ErrCodeResourceNotFound, http.StatusNotFound},
		{model.ErrCodeValidationFailed, http.StatusBadRequest},
		{model.ErrCodeSSRFBlocked, http.StatusBadRequest},
		{model.ErrCodeParseFailed, http.StatusUnprocessableEntity},
		{model.ErrCodeFetchFailed, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusForCode(tt.code); got != tt.want {
				t.Errorf("StatusForCode(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestWriteError_APIError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/resources", nil)

	WriteError(w, req, model.NewValidationError(map[string]string{"title": "cannot be blank"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	body := decodeError(t, w)
	if body.Code != model.ErrCodeValidationFailed {
		t.Errorf("code = %q", body.Code)
	}
	if body.Fields["title"] != "cannot be blank" {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestWriteError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, req, errors.Join(errors.New("context"), model.NewResourceNotFoundError()))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, req, errors.New("pq: password authentication failed"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeError(t, w)
	if body.Code != "INTERNAL_ERROR" || body.Message != "Server error" {
		t.Errorf("body = %+v", body)
	}
}
