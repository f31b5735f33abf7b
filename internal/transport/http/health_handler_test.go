package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikedash/internal/services"
	"bikedash/internal/shared/testutil"
)

func newHealthRouter(t *testing.T, sources map[string]string) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("v1.0.0-test", "2026-01-01", "abc123", sources, logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	local := filepath.Join(t.TempDir(), "day.csv")
	require.NoError(t, os.WriteFile(local, []byte("dteday\n"), 0644))

	tests := []struct {
		name       string
		path       string
		sources    map[string]string
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{name: "health", path: "/api/health", wantStatus: http.StatusOK, wantField: "status", wantValue: "ok"},
		{name: "live", path: "/api/health/live", wantStatus: http.StatusOK, wantField: "status", wantValue: "alive"},
		{
			name:       "ready",
			path:       "/api/health/ready",
			sources:    map[string]string{"daily": local, "hourly": "https://example.com/hour.csv"},
			wantStatus: http.StatusOK,
			wantField:  "status",
			wantValue:  "ready",
		},
		{
			name:       "not ready",
			path:       "/api/health/ready",
			sources:    map[string]string{"daily": filepath.Join(t.TempDir(), "missing.csv")},
			wantStatus: http.StatusServiceUnavailable,
			wantField:  "status",
			wantValue:  "not_ready",
		},
		{name: "version", path: "/api/version", wantStatus: http.StatusOK, wantField: "git_commit", wantValue: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthRouter(t, tt.sources).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantValue, body[tt.wantField])
		})
	}
}
