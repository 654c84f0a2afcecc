// Package cache stores fetched market data between requests.
package cache

import (
	"context"
	"time"
)

// BytesCache stores raw bytes with a TTL. A miss is reported with ok=false and a nil error.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
