package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contexture-ai/contexture"
	"github.com/contexture-ai/contexture/pkg/driver"
	"github.com/contexture-ai/contexture/pkg/graphsync"
	"github.com/contexture-ai/contexture/pkg/server/dto"
)

// GraphHandler handles graph build, sync and fetch requests
type GraphHandler struct {
	svc contexture.Contexture
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc contexture.Contexture) *GraphHandler {
	return &GraphHandler{svc: svc}
}

// BuildContextGraph handles POST /graph/context
func (h *GraphHandler) BuildContextGraph(c *gin.Context) {
	var req dto.ContextGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.svc.BuildContextGraph(req.Context))
}

// BuildDecisionGraph handles POST /graph/decision
func (h *GraphHandler) BuildDecisionGraph(c *gin.Context) {
	var req dto.DecisionGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.svc.BuildDecisionGraph(req.Context, req.Contexts, req.Limit))
}

// Import handles POST /graph/import
func (h *GraphHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	count, err := h.svc.ImportContexts(c.Request.Context(), req.Contexts, req.UserID, req.TenantID)
	if err != nil {
		c.JSON(storeErrorStatus(err), dto.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// Store handles POST /graph/store
func (h *GraphHandler) Store(c *gin.Context) {
	var req dto.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	count, err := h.svc.StoreDecisionGraph(c.Request.Context(), graphsync.Request{
		Contexts:   req.Contexts,
		UserID:     req.UserID,
		TenantID:   req.TenantID,
		ProjectID:  req.ProjectID,
		DocumentID: req.DocumentID,
		GraphID:    req.GraphID,
	})
	if err != nil {
		c.JSON(storeErrorStatus(err), dto.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// Fetch handles GET /graph
func (h *GraphHandler) Fetch(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "user_id is required",
		})
		return
	}

	graph, err := h.svc.FetchDecisionGraph(
		c.Request.Context(), userID, c.Query("tenant_id"), c.Query("context_id"))
	if err != nil {
		c.JSON(storeErrorStatus(err), dto.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, graph)
}

func storeErrorStatus(err error) int {
	if errors.Is(err, driver.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
