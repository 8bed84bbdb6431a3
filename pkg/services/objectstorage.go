package services

import (
	"context"
	"time"
)

// ObjectStorageService is the capability surface of the blob store holding
// certificate and private key material.
type ObjectStorageService interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
