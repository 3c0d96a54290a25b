package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/services"
)

type FilesHandler struct {
	history *services.HistoryService
}

func NewFilesHandler(history *services.HistoryService) *FilesHandler {
	return &FilesHandler{history: history}
}

// GetFile godoc
// @Summary     Fetch a generated image
// @Description Streams an image the caller owns, looked up by its file name
// @Tags        files
// @Produce     png,jpeg,webp
// @Security    Bearer
// @Param       file path string true "Image file name"
// @Success     200 {file} binary
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /generated/{file} [get]
func (h *FilesHandler) GetFile(c *gin.Context) {
	art, err := h.history.OpenArtifact(c.Request.Context(), middleware.UserID(c), c.Param("file"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer art.Body.Close()

	c.DataFromReader(http.StatusOK, -1, art.ContentType, art.Body, nil)
}
