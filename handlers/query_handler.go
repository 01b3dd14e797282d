package handlers

import (
	"errors"
	"net/http"

	"fundsight-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QueryHandler handles HTTP requests for natural-language queries
type QueryHandler struct {
	querySvc *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(querySvc *service.QueryService) *QueryHandler {
	return &QueryHandler{querySvc: querySvc}
}

// QueryRequest represents a natural-language query request
type QueryRequest struct {
	Query          string `json:"query" binding:"required"`
	FundID         string `json:"fund_id" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

// PostQuery handles POST /api/query
func (h *QueryHandler) PostQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	fundID, err := uuid.Parse(req.FundID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FUND_ID",
				"message": "Invalid fund_id format",
			},
		})
		return
	}

	result, err := h.querySvc.Query(c.Request.Context(), service.QueryRequest{
		Query:          req.Query,
		FundID:         fundID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		if errors.Is(err, service.ErrFundRequired) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_FUND_ID",
					"message": "fund_id is required",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": "Failed to answer query",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
