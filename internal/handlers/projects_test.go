package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/models"
)

func TestProjects_CRUD(t *testing.T) {
	s := newServer(t)

	w := s.do(t, alice, http.MethodGet, "/api/project-groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode[[]models.ProjectGroupResponse](t, w)
	require.Len(t, groups, 1)
	assert.Equal(t, "Default", groups[0].Name)

	w = s.do(t, alice, http.MethodPost, "/api/projects", map[string]any{"name": "Portraits", "uuid": "portraits", "groupUuid": groups[0].UUID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.ProjectResponse](t, w)
	assert.Equal(t, "portraits", created.UUID)
	assert.Equal(t, "Default", created.GroupName)

	w = s.do(t, alice, http.MethodPost, "/api/projects", map[string]any{"name": "Again", "uuid": "portraits", "groupUuid": groups[0].UUID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, alice, http.MethodPut, "/api/projects/portraits", map[string]any{"name": "Faces"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Faces", decode[models.ProjectResponse](t, w).Name)

	w = s.do(t, alice, http.MethodGet, "/api/projects/portraits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Faces", decode[models.ProjectResponse](t, w).Name)

	w = s.do(t, bob, http.MethodGet, "/api/projects/portraits", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, alice, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ProjectResponse](t, w), 1)
}

func TestProjects_CreateValidation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body map[string]any
		msg  string
	}{
		{"no name", map[string]any{"groupUuid": "g"}, "Name is required"},
		{"no group", map[string]any{"name": "x"}, "Group is required"},
		{"unknown group", map[string]any{"name": "x", "groupUuid": "nope"}, "Group not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, alice, http.MethodPost, "/api/projects", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.msg, decode[models.ErrorResponse](t, w).Error)
		})
	}
}

func TestProjects_DeleteCascades(t *testing.T) {
	s := newServer(t)
	s.project(t, alice, "p1")
	e := s.entry(t, alice, "p1", "a.png", time.Now())

	w := s.do(t, alice, http.MethodDelete, "/api/projects/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	_, err := s.db.GetHistory(context.Background(), e.UUID, alice)
	assert.Error(t, err)
	exists, err := s.store.Exists(context.Background(), "p1", "a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	w = s.do(t, alice, http.MethodDelete, "/api/projects/p1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjects_Summary(t *testing.T) {
	s := newServer(t)
	s.project(t, alice, "busy")
	s.project(t, alice, "empty")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.entry(t, alice, "busy", "old.png", base)
	s.entry(t, alice, "busy", "new.png", base.Add(time.Hour))

	w := s.do(t, alice, http.MethodGet, "/api/projects/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode[[]models.ProjectSummaryGroupResponse](t, w)
	require.Len(t, groups, 2)

	byProject := map[string]models.ProjectSummaryResponse{}
	for _, g := range groups {
		for _, p := range g.Projects {
			byProject[p.UUID] = p
		}
	}
	require.Contains(t, byProject, "busy")
	require.NotNil(t, byProject["busy"].LastImageName)
	assert.Equal(t, "new.png", *byProject["busy"].LastImageName)
	assert.True(t, base.Add(time.Hour).Equal(*byProject["busy"].LastCreatedAt))

	require.Contains(t, byProject, "empty")
	assert.Nil(t, byProject["empty"].LastImageName)
	assert.Nil(t, byProject["empty"].LastCreatedAt)
}

func TestProjectGroups_Lifecycle(t *testing.T) {
	s := newServer(t)

	w := s.do(t, alice, http.MethodPost, "/api/project-groups", map[string]any{"name": "Clients", "sortOrder": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	group := decode[models.ProjectGroupResponse](t, w)
	assert.Equal(t, 2, group.SortOrder)

	w = s.do(t, alice, http.MethodPost, "/api/projects", map[string]any{"name": "Acme", "uuid": "acme", "groupUuid": group.UUID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, alice, http.MethodGet, "/api/project-groups?withProjects=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	nested := decode[[]models.ProjectGroupWithProjectsResponse](t, w)
	require.Len(t, nested, 1)
	require.Len(t, nested[0].Projects, 1)
	assert.Equal(t, "acme", nested[0].Projects[0].UUID)

	w = s.do(t, alice, http.MethodPut, "/api/project-groups/"+group.UUID, map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name cannot be empty", decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, alice, http.MethodPut, "/api/project-groups/"+group.UUID, map[string]any{"name": "Customers"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Customers", decode[models.ProjectGroupResponse](t, w).Name)

	w = s.do(t, alice, http.MethodDelete, "/api/project-groups/"+group.UUID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete non-empty project group", decode[models.ErrorResponse](t, w).Error)

	w = s.do(t, alice, http.MethodDelete, "/api/projects/acme", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, alice, http.MethodDelete, "/api/project-groups/"+group.UUID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, bob, http.MethodDelete, "/api/project-groups/"+group.UUID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
