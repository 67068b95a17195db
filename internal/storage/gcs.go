package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/annolab/corpus-manager/internal/config"
	"github.com/annolab/corpus-manager/internal/logger"
)

// GCS stores export files in a Google Cloud Storage bucket. When an emulator
// host is configured the client runs unauthenticated against it and retrieval
// URLs point at the emulator instead of being signed.
type GCS struct {
	client       *storage.Client
	bucket       string
	emulatorHost string
	log          logger.Logger
}

func NewGCS(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*GCS, error) {
	var client *storage.Client
	var err error

	emulatorHost := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	if emulatorHost != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulatorHost)
		client, err = storage.NewClient(ctx, option.WithoutAuthentication())
	} else {
		client, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	log.Info("Object storage initialized",
		logger.String("bucket", cfg.Bucket),
		logger.String("emulator_host", emulatorHost),
	)

	return &GCS{
		client:       client,
		bucket:       cfg.Bucket,
		emulatorHost: emulatorHost,
		log:          log,
	}, nil
}

func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer for %q: %w", key, err)
	}
	return nil
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

// RetrievalURL returns a time-limited signed URL for the object. Against the
// emulator signing is unavailable, so a direct emulator URL is returned.
func (g *GCS) RetrievalURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if g.emulatorHost != "" {
		return fmt.Sprintf("%s/%s/%s", g.emulatorHost, g.bucket, key), nil
	}

	url, err := g.client.Bucket(g.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %q: %w", key, err)
	}
	return url, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
