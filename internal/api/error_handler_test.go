package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"validation", &domain.ValidationError{Field: "title", Reason: "too short"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"wrapped not found", fmt.Errorf("hire: %w", domain.ErrBidNotFound), http.StatusNotFound, "not_found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"invalid state", fmt.Errorf("hire: %w", domain.ErrInvalidState), http.StatusConflict, "invalid_state"},
		{"transaction failure", fmt.Errorf("hire: %w: %w", domain.ErrTransactionFailure, errors.New("no primary")), http.StatusServiceUnavailable, "transaction_failed"},
		{"bad payload", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "bad_request"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.wantKind {
				t.Fatalf("expected code %s, got %s", tc.wantKind, body.Code)
			}
			if body.Error == "" {
				t.Fatalf("error message must not be empty")
			}
		})
	}
}

func TestHTTPErrorHandler_DoesNotLeakInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("mongo: connection refused at 10.0.0.5"), c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
}
