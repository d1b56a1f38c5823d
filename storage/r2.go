package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mediaedge/config"
	"mediaedge/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// R2 uploads to a Cloudflare R2 bucket through its S3-compatible API.
type R2 struct {
	opts     config.R2Options
	uploader *manager.Uploader
}

// NewR2 builds an S3 client from the R2 options. Requests are signed with
// SigV4, the SDK default, which is what R2 requires.
func NewR2(opts config.R2Options) (*R2, error) {
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, errors.New("r2: CLOUDFLARE_ACCESS_KEY_ID and CLOUDFLARE_SECRET_ACCESS_KEY are required")
	}
	if opts.SignatureVersion != "" && opts.SignatureVersion != "v4" {
		return nil, fmt.Errorf("r2: unsupported signature version %q", opts.SignatureVersion)
	}

	client := s3.New(s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		BaseEndpoint: aws.String(opts.Endpoint),
		UsePathStyle: opts.ForcePathStyle,
	})

	return &R2{
		opts:     opts,
		uploader: manager.NewUploader(client),
	}, nil
}

func (p *R2) Name() string { return "r2" }

// Upload streams reader to the bucket under key.
func (p *R2) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.opts.Params.Bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if p.opts.Params.ACL != "" {
		input.ACL = types.ObjectCannedACL(p.opts.Params.ACL)
	}

	if _, err := p.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, p.opts.Params.Bucket, err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", key, p.opts.Params.Bucket)
	return nil
}
