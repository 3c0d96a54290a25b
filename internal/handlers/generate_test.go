package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/models"
)

func TestRoutes_RequireAuth(t *testing.T) {
	s := newServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/generate-image"},
		{http.MethodGet, "/api/history?project_uuid=p1"},
		{http.MethodGet, "/api/history/meta?project_uuid=p1"},
		{http.MethodPatch, "/api/history/x/favorite"},
		{http.MethodPost, "/api/history/move"},
		{http.MethodDelete, "/api/history/x"},
		{http.MethodGet, "/api/generated/a.png"},
		{http.MethodGet, "/api/projects"},
		{http.MethodGet, "/api/projects/summary"},
		{http.MethodGet, "/api/project-groups"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := s.do(t, 0, r.method, r.path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
		})
	}
}

func TestGenerate_ReturnsUpstreamBodyAndRecordsHistory(t *testing.T) {
	s := newServer(t)
	s.project(t, alice, "p1")

	w := s.do(t, alice, http.MethodPost, "/api/generate-image", map[string]any{
		"prompt":       "a red fox",
		"model":        "flux",
		"project_uuid": "p1",
		"width":        512,
		"height":       512,
		"provider":     "api2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), `"b64_json"`)

	rows, err := s.db.ListHistory(context.Background(), models.HistoryFilter{ProjectUUID: "p1", UserID: alice, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a red fox", rows[0].Prompt)

	ok, err := s.store.Exists(context.Background(), "p1", rows[0].ImageName)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerate_Errors(t *testing.T) {
	s := newServer(t)
	s.project(t, alice, "p1")
	s.project(t, bob, "bobs")

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"malformed body", "not an object", http.StatusBadRequest, "invalid request body"},
		{"missing prompt", map[string]any{"model": "m", "project_uuid": "p1", "width": 1, "height": 1}, http.StatusBadRequest, "prompt is required"},
		{"missing dimensions", map[string]any{"prompt": "x", "model": "m", "project_uuid": "p1"}, http.StatusBadRequest, "width and height (or resolution) are required"},
		{"foreign project", map[string]any{"prompt": "x", "model": "m", "project_uuid": "bobs", "width": 1, "height": 1}, http.StatusNotFound, "Project not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, alice, http.MethodPost, "/api/generate-image", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decode[models.ErrorResponse](t, w).Error)
		})
	}
}
