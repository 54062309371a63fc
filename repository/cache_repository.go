package repository

import "context"

// CacheRepository is the durable key-value store the loan collection is
// written to. Get reports found=false for a missing key; err is reserved for
// backend failures.
type CacheRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
