package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSessionID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		header      string
		status      int
		description string
	}{
		{"accepted", "0c4a4c5e-7f4d-4a4f-9a57-6b3c2f1e8d11", http.StatusOK, ""},
		{"missing", "", http.StatusUnauthorized, "Missing header: session-id is required"},
		{"not a uuid", "abc", http.StatusBadRequest, "Session id must be a valid uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequireSessionID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetSessionID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/authorization", nil)
			if tt.header != "" {
				req.Header.Set(SessionHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.header, seen)
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.description, body["error_description"])
			assert.Empty(t, seen)
		})
	}
}

func TestRequireContentType(t *testing.T) {
	handler := RequireContentType("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for ct, want := range map[string]int{
		"application/json":                  http.StatusNoContent,
		"application/json; charset=utf-8":   http.StatusNoContent,
		"":                                  http.StatusNoContent,
		"application/x-www-form-urlencoded": http.StatusUnsupportedMediaType,
	} {
		req := httptest.NewRequest(http.MethodPost, "/session", nil)
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, ct)
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	r := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"session_id":"too long"}`))
	h.ServeHTTP(httptest.NewRecorder(), r)

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}
