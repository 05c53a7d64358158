package storagedata

import (
	"context"
	"errors"
	"fmt"

	"github.com/stoewer/go-strcase"
)

// member is the type-erased view of a Cell[T] held by a Storage.
type member interface {
	Key() string
	IsSetCtx(ctx context.Context) bool
	SaveCtx(ctx context.Context) error
	RemoveCtx(ctx context.Context) error
	CloseCtx(ctx context.Context)
	isConsumed() bool
}

// Storage groups related cells under a common key prefix so they can be
// counted, saved, cleared and closed together.
type Storage struct {
	prefix      string
	defaultKind Kind
	backend     *Backend
	cellOpts    []Option

	cells []member
	keys  map[string]struct{}
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithKeyPrefix is prepended verbatim to every registered key.
func WithKeyPrefix(prefix string) StorageOption {
	return func(s *Storage) { s.prefix = prefix }
}

// WithDefaultKind sets the kind of cells that do not choose one.
func WithDefaultKind(kind Kind) StorageOption {
	return func(s *Storage) { s.defaultKind = kind }
}

// WithStorageBackend makes every registered cell use backend.
func WithStorageBackend(backend *Backend) StorageOption {
	return func(s *Storage) { s.backend = backend }
}

// WithCellOptions applies opts to every registered cell before its own options.
func WithCellOptions(opts ...Option) StorageOption {
	return func(s *Storage) { s.cellOpts = append(s.cellOpts, opts...) }
}

// NewStorage returns an empty group of cells.
// @group Storage
//
// Example: grouped settings
//
//	settings := storagedata.NewStorage(storagedata.WithKeyPrefix("settings."))
//	theme := storagedata.Register(settings, "ColorTheme", func() string { return "light" })
//	volume := storagedata.Register(settings, "volume", func() int { return 50 },
//		storagedata.WithSession())
//	defer settings.Close()
//	fmt.Println(theme.Key(), volume.Key()) // settings.colorTheme settings.volume
func NewStorage(opts ...StorageOption) *Storage {
	s := &Storage{keys: map[string]struct{}{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register adds a cell for field. The key is the storage prefix followed by
// field in lowerCamelCase. Registering the same key twice panics.
// @group Storage
func Register[T any](s *Storage, field string, def func() T, opts ...Option) *Cell[T] {
	key := s.prefix + strcase.LowerCamelCase(field)
	if _, dup := s.keys[key]; dup {
		panic(fmt.Sprintf("storagedata: key %q registered twice", key))
	}
	all := make([]Option, 0, len(s.cellOpts)+len(opts)+2)
	all = append(all, WithKind(s.defaultKind))
	if s.backend != nil {
		all = append(all, WithBackend(s.backend))
	}
	all = append(all, s.cellOpts...)
	all = append(all, opts...)
	c := NewCell(key, def, all...)
	s.keys[key] = struct{}{}
	s.cells = append(s.cells, c)
	return c
}

// Len returns the number of registered cells.
func (s *Storage) Len() int { return len(s.cells) }

// Keys returns the store keys in registration order.
func (s *Storage) Keys() []string {
	keys := make([]string, len(s.cells))
	for i, c := range s.cells {
		keys[i] = c.Key()
	}
	return keys
}

// LenInitialized counts cells that are cached or present in their store.
func (s *Storage) LenInitialized() int {
	return s.LenInitializedCtx(context.Background())
}

func (s *Storage) LenInitializedCtx(ctx context.Context) int {
	n := 0
	for _, c := range s.cells {
		if !c.isConsumed() && c.IsSetCtx(ctx) {
			n++
		}
	}
	return n
}

// Save saves every cell and keeps going past failures. The returned
// *BatchError lists the failed keys when listFailed is true.
// @group Storage
func (s *Storage) Save(listFailed bool) error {
	return s.SaveCtx(context.Background(), listFailed)
}

func (s *Storage) SaveCtx(ctx context.Context, listFailed bool) error {
	return s.each(listFailed, func(c member) error { return c.SaveCtx(ctx) })
}

// Clear removes every cell's key from its store and drops cached values.
// @group Storage
func (s *Storage) Clear(listFailed bool) error {
	return s.ClearCtx(context.Background(), listFailed)
}

func (s *Storage) ClearCtx(ctx context.Context, listFailed bool) error {
	return s.each(listFailed, func(c member) error { return c.RemoveCtx(ctx) })
}

// Close finalizes every cell.
func (s *Storage) Close() {
	s.CloseCtx(context.Background())
}

func (s *Storage) CloseCtx(ctx context.Context) {
	for _, c := range s.cells {
		c.CloseCtx(ctx)
	}
}

func (s *Storage) each(listFailed bool, fn func(member) error) error {
	var (
		failed []string
		errs   []error
	)
	for _, c := range s.cells {
		if err := fn(c); err != nil {
			errs = append(errs, err)
			if listFailed {
				failed = append(failed, c.Key())
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Keys: failed, Err: errors.Join(errs...)}
}
