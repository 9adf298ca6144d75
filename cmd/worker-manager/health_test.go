package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     []dependencyCheck
		wantStatus int
		wantBody   readyResponse
	}{
		{
			name:       "all dependencies up",
			checks:     []dependencyCheck{{Name: "postgres", Check: ok}, {Name: "redis", Check: ok}},
			wantStatus: http.StatusOK,
			wantBody: readyResponse{
				Status: "ready",
				Checks: map[string]string{"postgres": "ok", "redis": "ok"},
			},
		},
		{
			name: "one dependency down",
			checks: []dependencyCheck{
				{Name: "postgres", Check: ok},
				{Name: "elasticsearch", Check: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: readyResponse{
				Status: "not_ready",
				Checks: map[string]string{"postgres": "ok", "elasticsearch": "connection refused"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body readyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody.Status, body.Status)
			assert.Equal(t, tt.wantBody.Checks, body.Checks)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	mux := newHealthMux(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
