package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"mediaedge/config"
	"mediaedge/logger"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS uploads to a Google Cloud Storage bucket using a service account key.
type GCS struct {
	bucket string
	client *gcs.Client
}

// NewGCS decodes the base64 service account key and opens a client.
func NewGCS(ctx context.Context, opts config.GCSOptions) (*GCS, error) {
	if opts.Bucket == "" {
		return nil, errors.New("gcs: GCS_BUCKET is required")
	}
	credentialsJSON, err := base64.StdEncoding.DecodeString(opts.CredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("gcs: decode credentials: %w", err)
	}

	client, err := gcs.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCS{bucket: opts.Bucket, client: client}, nil
}

func (p *GCS) Name() string { return "gcs" }

// Upload streams reader to the object named key.
func (p *GCS) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	wc := p.client.Bucket(p.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, reader); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", key, p.bucket)
	return nil
}

// Close releases the client.
func (p *GCS) Close() error {
	return p.client.Close()
}
