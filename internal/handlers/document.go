package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/repository"
)

const defaultHistoryDays = 30

type DocumentHandler struct {
	documents *repository.DocumentRepository
	sentences *repository.SentenceRepository
	logger    logger.Logger
}

func NewDocumentHandler(documents *repository.DocumentRepository, sentences *repository.SentenceRepository, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		sentences: sentences,
		logger:    log,
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	documents, err := h.documents.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list documents", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"count":     len(documents),
	})
}

func (h *DocumentHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get document",
			logger.String("document_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get document"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete removes a document and every sentence its batch inserted.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	removed, err := h.sentences.DeleteByDocumentID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete upload batch",
			logger.String("document_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		h.logger.Error("Failed to delete document",
			logger.String("document_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	h.logger.Info("Document deleted",
		logger.String("document_id", id),
		logger.Int64("sentences_removed", removed),
	)

	c.JSON(http.StatusOK, gin.H{"documentId": id, "sentencesRemoved": removed})
}

func (h *DocumentHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.documents.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get document stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *DocumentHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	days := defaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	history, err := h.documents.GetHistory(c.Request.Context(), userID, days)
	if err != nil {
		h.logger.Error("Failed to get processing history", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":    days,
		"history": history,
	})
}

func (h *DocumentHandler) Duplicates(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	documents, err := h.documents.GetDuplicateReport(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get duplicate report", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get duplicate report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"count":     len(documents),
	})
}
