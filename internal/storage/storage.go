package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"creatorhub_backend/internal/config"

	"github.com/google/uuid"
)

// Storage keeps media files. Premium media is only ever handed out through
// GetSignedURL, after the access check.
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(ctx context.Context, key string) (string, error)
	GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Config holds storage configuration
type Config struct {
	Type      string // local, s3, cloudflare_r2
	BasePath  string // local
	BaseURL   string // public URL base
	Bucket    string // s3 / r2
	Region    string // s3
	AccessKey string
	SecretKey string
	Endpoint  string // r2 or a custom s3 endpoint
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	}
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// ObjectKey builds content/<kind>/<owner>/<uuid><ext>. The random part keeps
// keys unguessable for premium media.
func ObjectKey(kind, ownerID, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join("content", kind, ownerID, uuid.NewString()+ext)
}

// ThumbKey derives the thumbnail key from the original key.
func ThumbKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb.jpg"
}
