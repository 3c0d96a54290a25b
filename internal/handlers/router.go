package handlers

import (
	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/services"
)

type RouterDeps struct {
	JWTSecret  string
	DB         Pinger
	Generation *services.GenerationService
	History    *services.HistoryService
	Projects   *services.ProjectService
	Snippets   *services.SnippetService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthHandler(deps.DB)
	generate := NewGenerateHandler(deps.Generation)
	history := NewHistoryHandler(deps.History)
	files := NewFilesHandler(deps.History)
	projects := NewProjectsHandler(deps.Projects)
	groups := NewProjectGroupsHandler(deps.Projects)
	snippets := NewSnippetsHandler(deps.Snippets)

	router.GET("/health", health.Health)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		api.POST("/generate-image", generate.Generate)

		api.GET("/history", history.List)
		api.GET("/history/meta", history.Meta)
		api.PATCH("/history/:uuid/favorite", history.SetFavorite)
		api.POST("/history/move", history.Move)
		api.DELETE("/history/:uuid", history.Delete)

		api.GET("/generated/:file", files.GetFile)

		api.GET("/projects", projects.ListProjects)
		api.POST("/projects", projects.CreateProject)
		api.GET("/projects/summary", projects.ListSummaries)
		api.GET("/projects/:uuid", projects.GetProject)
		api.PUT("/projects/:uuid", projects.UpdateProject)
		api.DELETE("/projects/:uuid", projects.DeleteProject)

		api.GET("/project-groups", groups.ListGroups)
		api.POST("/project-groups", groups.CreateGroup)
		api.PUT("/project-groups/:uuid", groups.UpdateGroup)
		api.DELETE("/project-groups/:uuid", groups.DeleteGroup)

		api.GET("/snippets", snippets.ListSnippets)
		api.POST("/snippets", snippets.CreateSnippet)
		api.DELETE("/snippets/:uuid", snippets.DeleteSnippet)
	}

	return router
}
