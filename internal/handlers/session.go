package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annolab/corpus-manager/internal/export"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
)

type SessionHandler struct {
	sessions  *repository.SessionRepository
	sentences *repository.SentenceRepository
	exporter  *export.Service
	logger    logger.Logger
}

func NewSessionHandler(
	sessions *repository.SessionRepository,
	sentences *repository.SentenceRepository,
	exporter *export.Service,
	log logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		sentences: sentences,
		exporter:  exporter,
		logger:    log,
	}
}

type createSessionRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	LanguageFilter string `json:"language_filter"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session := &models.AnnotationSession{
		UserID:         userID,
		Name:           req.Name,
		Description:    req.Description,
		LanguageFilter: req.LanguageFilter,
	}
	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		h.logger.Error("Failed to create session",
			logger.String("session_name", req.Name),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.logger.Info("Session created",
		logger.String("session_id", session.ID),
		logger.String("user_id", userID),
	)

	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list sessions", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *SessionHandler) GetByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	session, ok := h.ownedSession(c, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session)
}

type updateStatusRequest struct {
	Status models.SessionStatus `json:"status" binding:"required"`
}

func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	session, ok := h.ownedSession(c, userID)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	switch req.Status {
	case models.SessionActive, models.SessionPaused, models.SessionCompleted,
		models.SessionExported, models.SessionArchived:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		return
	}

	if err := h.sessions.UpdateStatus(c.Request.Context(), session.ID, req.Status); err != nil {
		h.logger.Error("Failed to update session status",
			logger.String("session_id", session.ID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "status": req.Status})
}

type annotateRequest struct {
	SentenceID string   `json:"sentence_id" binding:"required"`
	Labels     []string `json:"labels" binding:"required"`
}

// Annotate attaches labels to a sentence and records it in the session's
// annotated set.
func (h *SessionHandler) Annotate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	session, ok := h.ownedSession(c, userID)
	if !ok {
		return
	}

	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	annotation := &models.Annotation{
		Labels:      req.Labels,
		AnnotatorID: userID,
		AnnotatedAt: time.Now().UTC(),
	}
	if err := h.sentences.UpdateAnnotation(c.Request.Context(), req.SentenceID, annotation); err != nil {
		if errors.Is(err, repository.ErrSentenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sentence not found"})
			return
		}
		h.logger.Error("Failed to update annotation",
			logger.String("sentence_id", req.SentenceID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to annotate sentence"})
		return
	}

	if err := h.sessions.AddAnnotated(c.Request.Context(), session.ID, req.SentenceID); err != nil {
		h.logger.Error("Failed to record annotated sentence",
			logger.String("session_id", session.ID),
			logger.String("sentence_id", req.SentenceID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record annotation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "sentenceId": req.SentenceID})
}

// RemoveAnnotated takes a sentence out of the annotated set. Sentences that
// were already exported are locked in and cannot be removed.
func (h *SessionHandler) RemoveAnnotated(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	session, ok := h.ownedSession(c, userID)
	if !ok {
		return
	}
	sentenceID := c.Param("sentenceId")

	err := h.sessions.RemoveAnnotated(c.Request.Context(), session.ID, sentenceID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "sentenceId": sentenceID})
	case errors.Is(err, repository.ErrSentenceExportLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "Sentence was exported and cannot be removed"})
	case errors.Is(err, repository.ErrNotSessionMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "Sentence is not annotated in this session"})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	default:
		h.logger.Error("Failed to remove annotated sentence",
			logger.String("session_id", session.ID),
			logger.String("sentence_id", sentenceID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove sentence"})
	}
}

type exportRequest struct {
	SentenceIDs []string `json:"sentence_ids"`
	Format      string   `json:"format"`
}

func (h *SessionHandler) Export(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	// The body is optional: no body means "everything not yet exported".
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.exporter.ExportSession(c.Request.Context(), export.Request{
		SessionID:   sessionID,
		UserID:      userID,
		SentenceIDs: req.SentenceIDs,
		Format:      req.Format,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, result)
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, export.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
	case errors.Is(err, export.ErrNothingToExport):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No sentences eligible for export"})
	case errors.Is(err, export.ErrNotAnnotated):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Export failed",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export session"})
	}
}

func (h *SessionHandler) RegenerateExportURL(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid export index"})
		return
	}

	url, err := h.exporter.RegenerateURL(c.Request.Context(), sessionID, userID, index)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, export.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
	case errors.Is(err, repository.ErrExportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
	case errors.Is(err, export.ErrExportObjectGone):
		c.JSON(http.StatusNotFound, gin.H{"error": "Export file no longer exists"})
	default:
		h.logger.Error("Failed to regenerate export URL",
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate URL"})
	}
}

// Delete removes a session without exports; a session with export history is
// archived instead, because its export log is the audit record.
func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	session, ok := h.ownedSession(c, userID)
	if !ok {
		return
	}

	err := h.sessions.Delete(c.Request.Context(), session.ID)
	switch {
	case err == nil:
		h.logger.Info("Session deleted", logger.String("session_id", session.ID))
		c.JSON(http.StatusNoContent, nil)
	case errors.Is(err, repository.ErrSessionHasExports):
		if archiveErr := h.sessions.UpdateStatus(c.Request.Context(), session.ID, models.SessionArchived); archiveErr != nil {
			h.logger.Error("Failed to archive session",
				logger.String("session_id", session.ID),
				logger.Error(archiveErr),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "status": models.SessionArchived})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	default:
		h.logger.Error("Failed to delete session",
			logger.String("session_id", session.ID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
	}
}

// SentenceExported answers whether any of the caller's sessions has exported
// the sentence.
func (h *SessionHandler) SentenceExported(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sentenceID := c.Param("id")

	exported, err := h.sessions.IsSentenceExported(c.Request.Context(), userID, sentenceID)
	if err != nil {
		h.logger.Error("Failed to query exported membership",
			logger.String("sentence_id", sentenceID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query exported state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sentenceId": sentenceID, "exported": exported})
}

// ownedSession loads the :id session and enforces ownership.
func (h *SessionHandler) ownedSession(c *gin.Context, userID string) (*models.AnnotationSession, bool) {
	id := c.Param("id")

	session, err := h.sessions.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get session",
			logger.String("session_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get session"})
		return nil, false
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session belongs to another user"})
		return nil, false
	}
	return session, true
}
