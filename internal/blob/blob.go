// Package blob accesses the object-storage collaborator that holds
// uploaded resume files. Keys are namespaced "<userID>/<timestamp>.<ext>".
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds connection settings for the storage collaborator. The
// endpoint supports any S3-compatible store.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Client wraps the S3 API for resume blob access.
type Client struct {
	s3     *s3.Client
	bucket string
	now    func() time.Time
}

// NewClient builds a storage client from config.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &Client{s3: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// Download fetches the blob at path. Every analysis re-downloads the
// resume fresh; nothing is cached.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Upload stores a resume blob under a fresh key for the user and
// returns the key.
func (c *Client) Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte, mediaType string) (string, error) {
	key := ObjectKey(userID, filename, c.now())

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey builds the storage key for an upload:
// "<userID>/<unix-nanos>.<ext>". The extension comes from the original
// filename, defaulting to "bin".
func ObjectKey(userID uuid.UUID, filename string, at time.Time) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixNano(), strings.ToLower(ext))
}
