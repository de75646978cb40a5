package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contexture-ai/contexture"
	"github.com/contexture-ai/contexture/pkg/server/dto"
)

// ContextHandler handles normalization and similarity requests
type ContextHandler struct {
	svc contexture.Contexture
}

// NewContextHandler creates a new context handler
func NewContextHandler(svc contexture.Contexture) *ContextHandler {
	return &ContextHandler{svc: svc}
}

// Normalize handles POST /contexts/normalize
func (h *ContextHandler) Normalize(c *gin.Context) {
	var req dto.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.svc.NormalizeContext(req.Raw, req.DocumentMeta))
}

// Similarity handles POST /similarity
func (h *ContextHandler) Similarity(c *gin.Context) {
	var req dto.SimilarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	matches := h.svc.BuildSimilarity(req.Context, req.Contexts, req.Limit)
	c.JSON(http.StatusOK, dto.SimilarityResponse{Matches: matches})
}

// Load handles GET /contexts
func (h *ContextHandler) Load(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "user_id is required",
		})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: "limit must be an integer",
			})
			return
		}
		limit = parsed
	}

	contexts, err := h.svc.LoadContexts(c.Request.Context(), userID, c.Query("tenant_id"), limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.ContextsResponse{Contexts: contexts, Total: len(contexts)})
}
