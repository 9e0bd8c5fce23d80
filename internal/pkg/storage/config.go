package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/unreadapp/unread/internal/pkg/env"
)

// Config holds the object storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PresignTTL      time.Duration
}

// LoadConfig loads the object storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PresignTTL:      15 * time.Minute,
	}

	if ttl := env.GetEnv("S3_PRESIGN_TTL", ""); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_PRESIGN_TTL: %w", err)
		}
		config.PresignTTL = parsed
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// EbookKey generates the object key for an ebook file.
// Format: ebooks/YYYY/MM/UUID.ext
func EbookKey(ebookUUID, fileExtension string, t time.Time) string {
	return fmt.Sprintf("ebooks/%04d/%02d/%s%s", t.Year(), int(t.Month()), ebookUUID, fileExtension)
}

// CoverKey generates the object key for an ebook cover image
func CoverKey(ebookUUID, fileExtension string) string {
	return fmt.Sprintf("covers/%s%s", ebookUUID, fileExtension)
}

// CoverThumbKey generates the object key for a cover thumbnail
func CoverThumbKey(ebookUUID string) string {
	return fmt.Sprintf("covers/thumb/%s.jpg", ebookUUID)
}
