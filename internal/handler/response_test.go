package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ventra/catalog-server/internal/domain"
)

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upload failure",
			err:        fmt.Errorf("%w: %v", domain.ErrUploadFailed, errors.New("bucket unreachable")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "image upload failed: bucket unreachable",
		},
		{
			name:       "missing upload file",
			err:        domain.ErrUploadMissingFile,
			wantStatus: http.StatusBadRequest,
			wantBody:   domain.ErrUploadMissingFile.Error(),
		},
		{
			name:       "duplicate email",
			err:        domain.ErrUserAlreadyExists,
			wantStatus: http.StatusBadRequest,
			wantBody:   domain.ErrUserAlreadyExists.Error(),
		},
		{
			name:       "missing user",
			err:        domain.ErrUserNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   domain.ErrUserNotFound.Error(),
		},
		{
			name:       "disabled user",
			err:        domain.ErrUserDisabled,
			wantStatus: http.StatusForbidden,
			wantBody:   domain.ErrUserDisabled.Error(),
		},
		{
			name:       "unknown error stays opaque",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			respondError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Error != tt.wantBody {
				t.Errorf("body = %q, want %q", resp.Error, tt.wantBody)
			}
		})
	}
}

func TestRespondError_RateLimitRetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	rec := httptest.NewRecorder()
	respondError(rec, req, &domain.RateLimitError{RetryAfter: 15 * time.Minute, HardBlock: true})

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "900" {
		t.Errorf("Retry-After = %q, want %q", got, "900")
	}
}
