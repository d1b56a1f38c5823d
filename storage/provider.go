// Package storage writes uploaded media to the configured provider.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"mediaedge/config"

	"github.com/google/uuid"
)

// Provider stores uploaded objects under a key such as "uploads/abc.png".
type Provider interface {
	Name() string
	Upload(ctx context.Context, key, contentType string, reader io.Reader) error
}

// New builds the provider named by cfg.UploadProvider.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.UploadProvider {
	case "r2", "s3":
		return NewR2(cfg.R2)
	case "gcs":
		return NewGCS(ctx, cfg.GCS)
	case "sftp":
		return NewSFTP(cfg.SFTP)
	case "local":
		return NewLocal(cfg.ServeDir), nil
	default:
		return nil, fmt.Errorf("unknown upload provider: %s", cfg.UploadProvider)
	}
}

// NewKey returns a fresh object key under uploads/ keeping the file extension.
func NewKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "uploads/" + uuid.NewString() + ext
}
