package handlers

import (
	"net/http"

	"fundsight-backend/models"
	"fundsight-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FundHandler handles HTTP requests for fund operations
type FundHandler struct {
	fundRepo *repository.FundRepository
	txRepo   *repository.TransactionRepository
}

// NewFundHandler creates a new fund handler
func NewFundHandler(fundRepo *repository.FundRepository, txRepo *repository.TransactionRepository) *FundHandler {
	return &FundHandler{
		fundRepo: fundRepo,
		txRepo:   txRepo,
	}
}

// CreateFundRequest represents the request to create a fund
type CreateFundRequest struct {
	Name        string  `json:"name" binding:"required"`
	Sponsor     *string `json:"sponsor"`
	VintageYear *int    `json:"vintage_year"`
}

// CreateFund handles POST /api/funds
func (h *FundHandler) CreateFund(c *gin.Context) {
	var req CreateFundRequest
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

	fund := &models.Fund{
		Name:        req.Name,
		Sponsor:     req.Sponsor,
		VintageYear: req.VintageYear,
	}

	if err := h.fundRepo.Create(c.Request.Context(), fund); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create fund",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    fund,
	})
}

// GetFund handles GET /api/funds/:id
func (h *FundHandler) GetFund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid fund ID format",
			},
		})
		return
	}

	fund, err := h.fundRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Fund not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    fund,
	})
}

// ListFunds handles GET /api/funds
func (h *FundHandler) ListFunds(c *gin.Context) {
	funds, err := h.fundRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list funds",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    funds,
	})
}

// ListTransactions handles GET /api/funds/:id/transactions
func (h *FundHandler) ListTransactions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid fund ID format",
			},
		})
		return
	}

	var txs []models.Transaction
	if kind := c.Query("kind"); kind != "" {
		switch models.TransactionKind(kind) {
		case models.KindCapitalCall, models.KindDistribution, models.KindAdjustment:
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_KIND",
					"message": "kind must be capital_call, distribution or adjustment",
				},
			})
			return
		}
		txs, err = h.txRepo.ListByFundAndKind(c.Request.Context(), id, models.TransactionKind(kind))
	} else {
		txs, err = h.txRepo.ListByFund(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list transactions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"transactions": txs,
			"count":        len(txs),
		},
	})
}
