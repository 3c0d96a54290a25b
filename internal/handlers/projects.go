package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

type ProjectsHandler struct {
	projects *services.ProjectService
}

func NewProjectsHandler(projects *services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.ListProjects(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = models.NewProjectResponse(p)
	}
	c.JSON(http.StatusOK, resp)
}

// ListSummaries godoc
// @Summary     Project summaries
// @Description Returns every group with its projects and the most recent image of each
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {array} models.ProjectSummaryGroupResponse
// @Router      /projects/summary [get]
func (h *ProjectsHandler) ListSummaries(c *gin.Context) {
	groups, err := h.projects.Summaries(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.ProjectSummaryGroupResponse, len(groups))
	for i, g := range groups {
		projects := make([]models.ProjectSummaryResponse, len(g.Projects))
		for j, p := range g.Projects {
			summary := models.ProjectSummaryResponse{ProjectResponse: models.NewProjectResponse(p.Project)}
			if p.LastImageName != "" {
				name, created := p.LastImageName, p.LastCreatedAt
				summary.LastImageName = &name
				summary.LastCreatedAt = &created
			}
			projects[j] = summary
		}
		resp[i] = models.ProjectSummaryGroupResponse{
			ProjectGroupResponse: models.NewProjectGroupResponse(g.Group),
			Projects:             projects,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectsHandler) GetProject(c *gin.Context) {
	p, err := h.projects.GetProject(c.Request.Context(), middleware.UserID(c), c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProjectResponse(*p))
}

// CreateProject godoc
// @Summary     Create project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Project"
// @Success     201 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name is required")
		return
	}

	p, err := h.projects.CreateProject(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewProjectResponse(*p))
}

func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name is required")
		return
	}

	p, err := h.projects.UpdateProject(c.Request.Context(), middleware.UserID(c), c.Param("uuid"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProjectResponse(*p))
}

// DeleteProject removes the project, its history and its images.
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	if err := h.projects.DeleteProject(c.Request.Context(), middleware.UserID(c), c.Param("uuid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
