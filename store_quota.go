package storagedata

import (
	"context"
	"fmt"
)

// quotaStore rejects values whose encoded form exceeds max bytes, mirroring
// the quota errors browser storage raises.
type quotaStore struct {
	inner Store
	max   int
}

func newQuotaStore(inner Store, max int) Store {
	if max <= 0 {
		return inner
	}
	return &quotaStore{inner: inner, max: max}
}

func (s *quotaStore) Driver() Driver { return s.inner.Driver() }

func (s *quotaStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *quotaStore) Set(ctx context.Context, key string, value string) error {
	if len(value) > s.max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrQuotaExceeded, len(value), s.max)
	}
	return s.inner.Set(ctx, key, value)
}

func (s *quotaStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *quotaStore) Close() error { return CloseStore(s.inner) }
