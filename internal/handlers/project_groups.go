package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

type ProjectGroupsHandler struct {
	projects *services.ProjectService
}

func NewProjectGroupsHandler(projects *services.ProjectService) *ProjectGroupsHandler {
	return &ProjectGroupsHandler{projects: projects}
}

// ListGroups returns the caller's groups, nesting projects when
// withProjects is set.
func (h *ProjectGroupsHandler) ListGroups(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	groups, err := h.projects.ListGroups(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("withProjects") == "" {
		resp := make([]models.ProjectGroupResponse, len(groups))
		for i, g := range groups {
			resp[i] = models.NewProjectGroupResponse(g)
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	byGroup, err := h.projects.GroupProjects(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]models.ProjectGroupWithProjectsResponse, len(groups))
	for i, g := range groups {
		projects := make([]models.ProjectResponse, 0, len(byGroup[g.UUID]))
		for _, p := range byGroup[g.UUID] {
			projects = append(projects, models.NewProjectResponse(p))
		}
		resp[i] = models.ProjectGroupWithProjectsResponse{
			ProjectGroupResponse: models.NewProjectGroupResponse(g),
			Projects:             projects,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectGroupsHandler) CreateGroup(c *gin.Context) {
	var req models.ProjectGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name is required")
		return
	}

	g, err := h.projects.CreateGroup(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewProjectGroupResponse(*g))
}

func (h *ProjectGroupsHandler) UpdateGroup(c *gin.Context) {
	var req models.ProjectGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	g, err := h.projects.UpdateGroup(c.Request.Context(), middleware.UserID(c), c.Param("uuid"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProjectGroupResponse(*g))
}

func (h *ProjectGroupsHandler) DeleteGroup(c *gin.Context) {
	if err := h.projects.DeleteGroup(c.Request.Context(), middleware.UserID(c), c.Param("uuid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
