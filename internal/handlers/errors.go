package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/services"
)

// respondError writes err as a JSON error body. Service errors carry a
// caller-safe message; anything else is reported generically.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		slog.Error("unhandled error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	status := statusFor(se.Kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "kind", se.Kind.String(), "error", se.Err)
	}
	c.JSON(status, models.ErrorResponse{Error: se.Message, Missing: se.Missing})
}

func statusFor(k services.Kind) int {
	switch k {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}
