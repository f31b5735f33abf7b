package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.0.0", "", "", nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "day.csv")
	require.NoError(t, os.WriteFile(local, []byte("date\n"), 0644))

	tests := []struct {
		name    string
		sources map[string]string
		want    string
	}{
		{
			name:    "remote and local sources",
			sources: map[string]string{"daily": "https://example.com/day.csv", "hourly": "file://" + local},
			want:    "ready",
		},
		{
			name:    "missing local file",
			sources: map[string]string{"daily": filepath.Join(dir, "missing.csv")},
			want:    "not_ready",
		},
		{
			name:    "empty source",
			sources: map[string]string{"hourly": ""},
			want:    "not_ready",
		},
		{
			name:    "url without host",
			sources: map[string]string{"daily": "https:///day.csv"},
			want:    "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.0.0", "", "", tt.sources, nil)
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Services, len(tt.sources))
		})
	}
}

func TestHealthService_LivenessCheck(t *testing.T) {
	status := NewHealthService("1.0.0", "", "", nil, nil).LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	v := NewHealthService("1.0.0", "2026-01-02", "abc123", nil, nil).Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2026-01-02", v["build_time"])
	assert.Equal(t, "abc123", v["git_commit"])

	v = NewHealthService("1.0.0", "", "", nil, nil).Version()
	assert.NotContains(t, v, "build_time")
}
