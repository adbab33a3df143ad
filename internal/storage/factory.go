package storage

import (
	"context"
	"fmt"

	satoriconfig "satori/internal/config"
)

// New builds the configured Provider, keyed on cfg.Kind ("local" or "s3").
func New(ctx context.Context, cfg satoriconfig.Storage) (Provider, error) {
	switch cfg.Kind {
	case "local":
		return NewLocal(cfg.Path)
	case "s3":
		return NewS3(ctx, S3Config{Bucket: cfg.Bucket, Region: cfg.Region, Endpoint: cfg.Endpoint})
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
}
