package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/corpus-manager/internal/export"
	"github.com/annolab/corpus-manager/internal/handlers"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
	"github.com/annolab/corpus-manager/internal/storage"
	"github.com/annolab/corpus-manager/internal/testhelpers"
)

type stubSessionStore struct {
	session *models.AnnotationSession
}

func (s *stubSessionStore) GetByID(_ context.Context, id string) (*models.AnnotationSession, error) {
	if s.session == nil || s.session.ID != id {
		return nil, repository.ErrSessionNotFound
	}
	return s.session, nil
}

func (s *stubSessionStore) AppendExport(context.Context, string, models.ExportEvent, []string) error {
	return nil
}

func (s *stubSessionStore) UpdateExportURL(context.Context, string, int, string) error {
	return nil
}

type stubExportSentences struct{}

func (stubExportSentences) GetByIDs(context.Context, []string) ([]models.Sentence, error) {
	return nil, nil
}

func (stubExportSentences) MarkExported(context.Context, []string, time.Time) error {
	return nil
}

func setupRegenerateRouter(t *testing.T, session *models.AnnotationSession, store storage.ObjectStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testhelpers.NewTestLogger()
	exporter := export.NewService(&stubSessionStore{session: session}, stubExportSentences{},
		store, nil, nil, nil, log, time.Hour)
	handler := handlers.NewSessionHandler(nil, nil, exporter, log)

	router := gin.New()
	router.POST("/sessions/:id/exports/:index/url", handler.RegenerateExportURL)
	return router
}

func regenerateRequest(sessionID, index string) *http.Request {
	req := httptest.NewRequest(http.MethodPost,
		"/sessions/"+sessionID+"/exports/"+index+"/url", http.NoBody)
	req.Header.Set("X-User-ID", "user-1")
	return req
}

func TestSessionHandler_RegenerateExportURL(t *testing.T) {
	session := &models.AnnotationSession{
		ID:     "sess-1",
		UserID: "user-1",
		Name:   "batch one",
		Status: models.SessionActive,
		Exports: models.ExportEventList{{
			StorageKey:  "exports/user-1/sess-1/old.csv",
			DownloadURL: "memory://stale",
		}},
	}

	t.Run("fresh url for an existing object", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Put(context.Background(),
			"exports/user-1/sess-1/old.csv", []byte("data"), "text/csv"))
		router := setupRegenerateRouter(t, session, mem)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, regenerateRequest("sess-1", "0"))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["downloadUrl"])
	})

	t.Run("stored object gone", func(t *testing.T) {
		// The ledger still lists the export but the object was removed
		// from storage; the client should see not-found, not a server error.
		router := setupRegenerateRouter(t, session, storage.NewMemory())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, regenerateRequest("sess-1", "0"))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Export file no longer exists", response["error"])
	})

	t.Run("index out of range", func(t *testing.T) {
		router := setupRegenerateRouter(t, session, storage.NewMemory())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, regenerateRequest("sess-1", "5"))

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Export not found", response["error"])
	})

	t.Run("unknown session", func(t *testing.T) {
		router := setupRegenerateRouter(t, session, storage.NewMemory())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, regenerateRequest("sess-404", "0"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
