package cache

import (
	"context"
	"time"
)

// EstimateStore is the persistence boundary for the sales estimate list. It
// stores an opaque payload under a key with a TTL; the estimate repository
// owns the envelope format and the staleness rule.
type EstimateStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopEstimateStore never persists anything; repositories using it are
// memory-only for the lifetime of the process.
type NoopEstimateStore struct{}

func (NoopEstimateStore) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopEstimateStore) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (NoopEstimateStore) Delete(_ context.Context, _ string) error {
	return nil
}
