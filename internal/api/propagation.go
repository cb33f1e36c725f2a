package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/signalsfoundry/groundwave/internal/service"
	"github.com/signalsfoundry/groundwave/model"
)

const statusOK = "ok"

type evaluateResponse struct {
	Parameters model.InputParameters `json:"parameters"`
	Result     model.Result          `json:"result"`
	MethodName string                `json:"method_name"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      statusOK,
		"persistence": h.svc.PersistenceEnabled(),
	})
}

// evaluate runs one point. Fields omitted from the body keep their
// model.DefaultParameters values.
func (h *Handler) evaluate(c *gin.Context) {
	p := model.DefaultParameters()
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	res, err := h.svc.Evaluate(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluateResponse{Parameters: p, Result: res, MethodName: res.Method.String()})
}

func (h *Handler) createSweep(c *gin.Context) {
	var req service.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	resp, err := h.svc.Sweep(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if resp.ID != "" {
		status = http.StatusCreated
		c.Header("Location", "/api/v1/sweeps/"+resp.ID)
	}
	c.JSON(status, resp)
}

func (h *Handler) listSweeps(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := h.svc.ListSweeps(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweeps": runs})
}

func (h *Handler) getSweep(c *gin.Context) {
	run, err := h.svc.GetSweep(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
