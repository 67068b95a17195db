package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/annolab/corpus-manager/internal/handlers"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/metrics"
)

const (
	corsMaxAgeHours = 12
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Upload   *handlers.UploadHandler
	Document *handlers.DocumentHandler
	Session  *handlers.SessionHandler
	Sentence *handlers.SentenceHandler
}

func NewRouter(h Handlers, m *metrics.Metrics, allowOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With", "X-User-ID",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(requestMetrics(m))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1
	v1 := router.Group("/api/v1")

	// Upload pipeline
	v1.POST("/upload", h.Upload.Upload)

	// Document ledger
	documents := v1.Group("/documents")
	documents.GET("", h.Document.List)
	documents.GET("/stats", h.Document.Stats)
	documents.GET("/history", h.Document.History)
	documents.GET("/duplicates", h.Document.Duplicates)
	documents.GET("/:id", h.Document.GetByID)
	documents.DELETE("/:id", h.Document.Delete)

	// Corpus sentences
	sentences := v1.Group("/sentences")
	sentences.GET("/vocabularies", h.Sentence.Vocabularies)
	sentences.GET("/:id", h.Sentence.GetByID)
	sentences.GET("/:id/exported", h.Session.SentenceExported)

	// Annotation sessions
	sessions := v1.Group("/sessions")
	sessions.POST("", h.Session.Create)
	sessions.GET("", h.Session.List)
	sessions.GET("/:id", h.Session.GetByID)
	sessions.PUT("/:id/status", h.Session.UpdateStatus)
	sessions.POST("/:id/annotations", h.Session.Annotate)
	sessions.DELETE("/:id/annotations/:sentenceId", h.Session.RemoveAnnotated)
	sessions.POST("/:id/exports", h.Session.Export)
	sessions.POST("/:id/exports/:index/url", h.Session.RegenerateExportURL)
	sessions.DELETE("/:id", h.Session.Delete)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
