package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annolab/corpus-manager/internal/api"
	"github.com/annolab/corpus-manager/internal/config"
	"github.com/annolab/corpus-manager/internal/database"
	"github.com/annolab/corpus-manager/internal/events"
	"github.com/annolab/corpus-manager/internal/export"
	"github.com/annolab/corpus-manager/internal/handlers"
	"github.com/annolab/corpus-manager/internal/ingest"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/metrics"
	"github.com/annolab/corpus-manager/internal/repository"
	"github.com/annolab/corpus-manager/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	srv *http.Server
	log logger.Logger
}

// SetupHTTPServer wires repositories, services and handlers into the router.
func SetupHTTPServer(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	store storage.ObjectStore,
	m *metrics.Metrics,
	log logger.Logger,
) *Server {
	sentenceRepo := repository.NewSentenceRepository(db.DB(), log)
	documentRepo := repository.NewDocumentRepository(db.DB(), log)
	sessionRepo := repository.NewSessionRepository(db.DB(), log)

	detector := ingest.NewDetector(sentenceRepo, log)
	ingestService := ingest.NewService(
		documentRepo, sentenceRepo, detector, publisher, m, log,
		cfg.Upload.PipelineTimeout,
	)
	exportService := export.NewService(
		sessionRepo, sentenceRepo, store, nil, publisher, m, log,
		cfg.Storage.ExportURLTTL,
	)

	router := api.NewRouter(api.Handlers{
		Upload:   handlers.NewUploadHandler(ingestService, cfg.Upload.MaxFileSize, log),
		Document: handlers.NewDocumentHandler(documentRepo, sentenceRepo, log),
		Session:  handlers.NewSessionHandler(sessionRepo, sentenceRepo, exportService, log),
		Sentence: handlers.NewSentenceHandler(sentenceRepo, log),
	}, m, cfg.Server.CORSOrigins, log)

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		log: log,
	}
}

// Run serves until SIGINT/SIGTERM or context cancellation, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		s.log.Info("Shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		s.log.Info("Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server", logger.Duration("timeout", shutdownTimeout))
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}
