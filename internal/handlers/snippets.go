package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

type SnippetsHandler struct {
	snippets *services.SnippetService
}

func NewSnippetsHandler(snippets *services.SnippetService) *SnippetsHandler {
	return &SnippetsHandler{snippets: snippets}
}

// ListSnippets godoc
// @Summary     List prompt snippets
// @Description Returns the caller's snippets, newest first, optionally filtered by q
// @Tags        snippets
// @Produce     json
// @Security    Bearer
// @Param       q query string false "Substring matched against title and snippet"
// @Success     200 {array} models.SnippetResponse
// @Router      /snippets [get]
func (h *SnippetsHandler) ListSnippets(c *gin.Context) {
	snippets, err := h.snippets.List(c.Request.Context(), middleware.UserID(c), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.SnippetResponse, len(snippets))
	for i, s := range snippets {
		resp[i] = models.NewSnippetResponse(s)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SnippetsHandler) CreateSnippet(c *gin.Context) {
	var req models.CreateSnippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Snippet content is required")
		return
	}

	s, err := h.snippets.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewSnippetResponse(*s))
}

func (h *SnippetsHandler) DeleteSnippet(c *gin.Context) {
	if err := h.snippets.Delete(c.Request.Context(), middleware.UserID(c), c.Param("uuid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
