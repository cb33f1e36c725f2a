package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signalsfoundry/groundwave/core"
	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/service"
)

const errInvalidBodyPref = "invalid body: "

// writeError maps service and engine errors onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var lfmfErr *core.Error
	switch {
	case errors.As(err, &lfmfErr) && lfmfErr.Kind() == core.KindValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"code":  int(lfmfErr.Code),
			"field": lfmfErr.Field().String(),
		})
	case errors.As(err, &lfmfErr):
		h.log.Warn(c.Request.Context(), "engine error", logging.Err(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": int(lfmfErr.Code)})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPersistenceDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error(c.Request.Context(), "request failed", logging.String("path", c.FullPath()), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
