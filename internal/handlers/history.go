package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/middleware"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

type HistoryHandler struct {
	history *services.HistoryService
}

func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func historyQuery(c *gin.Context) services.HistoryQuery {
	return services.HistoryQuery{
		ProjectUUID: c.Query("project_uuid"),
		Page:        c.Query("page"),
		PageSize:    c.Query("pageSize"),
		Favorite:    c.Query("favorite"),
	}
}

// List godoc
// @Summary     List history
// @Description Returns one page of a project's history, newest first
// @Tags        history
// @Produce     json
// @Security    Bearer
// @Param       project_uuid query string true  "Project UUID"
// @Param       page         query int    false "Page (1-based)"
// @Param       pageSize     query int    false "Page size (1-100, default 50)"
// @Param       favorite     query string false "true or 1 for favorites only"
// @Success     200 {array}  models.HistoryResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	entries, err := h.history.List(c.Request.Context(), middleware.UserID(c), historyQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]models.HistoryResponse, len(entries))
	for i, e := range entries {
		resp[i] = models.NewHistoryResponse(e)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HistoryHandler) Meta(c *gin.Context) {
	meta, err := h.history.Meta(c.Request.Context(), middleware.UserID(c), historyQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *HistoryHandler) SetFavorite(c *gin.Context) {
	var req models.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "favorite is required (boolean)")
		return
	}

	favorite, err := h.history.SetFavorite(c.Request.Context(), middleware.UserID(c), c.Param("uuid"), req.Favorite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FavoriteResponse{OK: true, Favorite: favorite})
}

// Move godoc
// @Summary     Move history entries
// @Description Reassigns entries to another project and relocates their images, renaming on collision
// @Tags        history
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.MoveEntriesRequest true "Entries and target project"
// @Success     200 {object} models.MoveEntriesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /history/move [post]
func (h *HistoryHandler) Move(c *gin.Context) {
	var req models.MoveEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "entryUuids must be a non-empty array")
		return
	}

	moved, err := h.history.Move(c.Request.Context(), middleware.UserID(c), req.EntryUUIDs, req.TargetProjectUUID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MoveEntriesResponse{OK: true, Moved: moved})
}

func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.history.Delete(c.Request.Context(), middleware.UserID(c), c.Param("uuid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
