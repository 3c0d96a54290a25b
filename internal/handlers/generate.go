package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

type GenerateHandler struct {
	generation *services.GenerationService
}

func NewGenerateHandler(generation *services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generation: generation}
}

// Generate godoc
// @Summary     Generate an image
// @Description Runs one synchronous generation, stores the artifact in the project and returns the upstream response unchanged
// @Tags        generate
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateImageRequest true "Generation parameters"
// @Success     200 {object} object
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /generate-image [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	raw, err := h.generation.Generate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
