package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annolab/corpus-manager/internal/ingest"
	"github.com/annolab/corpus-manager/internal/logger"
)

type UploadHandler struct {
	service     *ingest.Service
	maxFileSize int64
	logger      logger.Logger
}

func NewUploadHandler(service *ingest.Service, maxFileSize int64, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      log,
	}
}

// Upload accepts a multipart "file" field and runs the ingestion pipeline.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field", "details": err.Error()})
		return
	}
	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	if int64(len(data)) > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	result, err := h.service.ProcessUpload(c.Request.Context(), ingest.Upload{
		Filename: fileHeader.Filename,
		Data:     data,
		UserID:   userID,
		MimeType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		h.logger.Error("Upload failed",
			logger.String("filename", fileHeader.Filename),
			logger.Error(err),
		)
		if result == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process upload"})
			return
		}
		// The tracking record exists and is terminal; return it with the error.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "result": result})
		return
	}

	c.JSON(http.StatusCreated, result)
}
