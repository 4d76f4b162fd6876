package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for duplicate-request detection, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
