package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
)

type SentenceHandler struct {
	sentences *repository.SentenceRepository
	logger    logger.Logger
}

func NewSentenceHandler(sentences *repository.SentenceRepository, log logger.Logger) *SentenceHandler {
	return &SentenceHandler{
		sentences: sentences,
		logger:    log,
	}
}

func (h *SentenceHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	sentence, err := h.sentences.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrSentenceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sentence not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get sentence",
			logger.String("sentence_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sentence"})
		return
	}

	c.JSON(http.StatusOK, sentence)
}

// Vocabularies lists the closed vocabularies upload files must draw from.
func (h *SentenceHandler) Vocabularies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scripts":                   models.Scripts(),
		"source_types":              models.SourceTypes(),
		"domains":                   models.Domains(),
		"themes":                    models.Themes(),
		"sensitive_characteristics": models.SensitiveCharacteristics(),
		"safety_flags":              models.SafetyFlags(),
	})
}
