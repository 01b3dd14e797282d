package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"fundsight-backend/repository"
	"fundsight-backend/service"
	"fundsight-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles HTTP requests for document ingestion
type DocumentHandler struct {
	ingestion   *service.IngestionService
	fundRepo    *repository.FundRepository
	docRepo     *repository.DocumentRepository
	chunkRepo   *repository.ChunkRepository
	fileStorage storage.Storage
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestion *service.IngestionService, fundRepo *repository.FundRepository, docRepo *repository.DocumentRepository, chunkRepo *repository.ChunkRepository, fileStorage storage.Storage) *DocumentHandler {
	return &DocumentHandler{
		ingestion:   ingestion,
		fundRepo:    fundRepo,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		fileStorage: fileStorage,
		maxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// UploadDocument handles POST /api/funds/:id/documents. The upload
// returns as soon as the document is stored; extraction runs in the
// background and is observed through the status endpoint.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
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

	if _, err := h.fundRepo.GetByID(c.Request.Context(), fundID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FUND_NOT_FOUND",
				"message": "Fund not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	result, err := h.ingestion.Ingest(c.Request.Context(), service.IngestRequest{
		FundID:   fundID,
		Filename: fileHeader.Filename,
		Data:     file,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INGEST_FAILED",
				"message": fmt.Sprintf("Failed to accept document: %v", err),
			},
		})
		return
	}

	doc := result.Document

	// Run extraction in the background with a fresh context so it
	// survives the request.
	go func() {
		bgCtx := context.Background()
		if err := h.ingestion.Process(bgCtx, doc.ID); err != nil {
			log.Printf("Error processing document %s: %v", doc.ID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"id":          doc.ID,
			"fund_id":     doc.FundID,
			"filename":    doc.Filename,
			"status":      doc.Status,
			"uploaded_at": doc.UploadedAt,
		},
	})
}

// GetDocumentStatus handles GET /api/documents/:id
func (h *DocumentHandler) GetDocumentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc, err := h.ingestion.Status(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	response := gin.H{
		"id":         doc.ID,
		"fund_id":    doc.FundID,
		"filename":   doc.Filename,
		"status":     doc.Status,
		"updated_at": doc.UpdatedAt,
	}
	if doc.ErrorMessage != nil {
		response["error_message"] = *doc.ErrorMessage
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// ListDocuments handles GET /api/funds/:id/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
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

	docs, err := h.docRepo.ListByFund(c.Request.Context(), fundID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list documents",
			},
		})
		return
	}

	indexedChunks, err := h.chunkRepo.CountByFund(c.Request.Context(), fundID)
	if err != nil {
		log.Printf("Warning: failed to count chunks for fund %s: %v", fundID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"documents":      docs,
			"indexed_chunks": indexedChunks,
		},
	})
}

// DeleteDocument handles DELETE /api/documents/:id. Removes the
// document record (its transactions and chunks cascade) and the stored
// report file.
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	if err := h.docRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete document",
			},
		})
		return
	}

	if err := h.fileStorage.Delete(c.Request.Context(), doc.StoragePath); err != nil {
		log.Printf("Warning: failed to delete stored file %s: %v", doc.StoragePath, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id": id,
		},
	})
}
