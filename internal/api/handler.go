// Package api serves the REST surface of lfmf-server.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/signalsfoundry/groundwave/internal/logging"
	"github.com/signalsfoundry/groundwave/internal/observability"
	"github.com/signalsfoundry/groundwave/internal/service"
)

// Handler wires the HTTP layer to the propagation service.
type Handler struct {
	svc     *service.Service
	log     logging.Logger
	metrics *observability.APICollector
}

// NewHandler constructs a Handler. log and metrics may be nil.
func NewHandler(svc *service.Service, log logging.Logger, metrics *observability.APICollector) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	return &Handler{svc: svc, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), tracingMiddleware())
	if h.metrics != nil {
		router.Use(h.metrics.GinMiddleware())
	}

	router.GET("/health", h.health)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/evaluate", h.evaluate)

		sweeps := api.Group("/sweeps")
		{
			sweeps.POST("", h.createSweep)
			sweeps.GET("", h.listSweeps)
			sweeps.GET("/:id", h.getSweep)
		}
	}
}
