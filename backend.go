package storagedata

import (
	"errors"
	"fmt"
	"sync"
)

// Backend binds one Store to each storage Kind.
type Backend struct {
	local   Store
	session Store
}

// NewBackend returns a backend over a durable and an ephemeral store.
// A nil store makes cells of that kind fail with ErrStoreUnavailable.
func NewBackend(local, session Store) *Backend {
	return &Backend{local: local, session: session}
}

// Store returns the store for kind.
func (b *Backend) Store(kind Kind) Store {
	var store Store
	if b != nil {
		switch kind {
		case KindSession:
			store = b.session
		default:
			store = b.local
		}
	}
	if store == nil {
		return &errorStore{
			driver: DriverNull,
			err:    fmt.Errorf("%w: no %s store configured", ErrStoreUnavailable, kind),
		}
	}
	return store
}

// Close releases the connections of both stores. A store shared by both
// kinds is closed once.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	if b.local != nil {
		errs = append(errs, CloseStore(b.local))
	}
	if b.session != nil && b.session != b.local {
		errs = append(errs, CloseStore(b.session))
	}
	return errors.Join(errs...)
}

// Local returns the durable store.
func (b *Backend) Local() Store { return b.Store(KindLocal) }

// Session returns the ephemeral store.
func (b *Backend) Session() Store { return b.Store(KindSession) }

var (
	defaultBackendMu sync.Mutex
	defaultBackend   *Backend
)

// DefaultBackend returns the process-wide backend used by cells that were not
// given a store or backend. Under js/wasm it targets the browser's
// localStorage and sessionStorage; elsewhere it uses a file store for local
// values and an in-process memory store for session values.
func DefaultBackend() *Backend {
	defaultBackendMu.Lock()
	defer defaultBackendMu.Unlock()
	if defaultBackend == nil {
		defaultBackend = newPlatformBackend()
	}
	return defaultBackend
}

// SetDefaultBackend replaces the process-wide backend. Passing nil restores
// the platform default on next use.
func SetDefaultBackend(b *Backend) {
	defaultBackendMu.Lock()
	defer defaultBackendMu.Unlock()
	defaultBackend = b
}
