package storagedata

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps entries for the lifetime of the process, which is the
// session scope outside a browser.
type memoryStore struct {
	cache *gocache.Cache
}

func newMemoryStore() Store {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *memoryStore) Driver() Driver {
	return DriverMemory
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	item, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	value, ok := item.(string)
	if !ok {
		return "", false, nil
	}
	return value, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value string) error {
	s.cache.Set(key, value, gocache.NoExpiration)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
