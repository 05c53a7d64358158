package storagedata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Cell binds one store key to a lazily loaded, cached value of type T.
//
// The value is read from the store on first access and cached until the cell
// is cleared by Remove or Close. Mutable access marks the cell dirty; Save and
// Close write dirty values back. A Cell is owned by a single caller and is not
// safe for concurrent use.
type Cell[T any] struct {
	key            string
	def            func() T
	kind           Kind
	backend        *Backend
	store          Store
	codec          Codec
	persistOnClose bool
	failHard       bool
	logger         *slog.Logger
	observer       Observer

	value    T
	loaded   bool
	used     bool
	dirty    bool
	consumed bool
}

// NewCell creates a cell over key. def supplies the value used when the store
// has no entry for key. Construction never touches the store.
// @group Cell
//
// Example: counter in durable storage
//
//	visits := storagedata.NewCell("visits", func() int { return 0 })
//	defer visits.Close()
//	visits.Update(func(n *int) { *n++ })
//	fmt.Println(visits.Get()) // 1 on first run
func NewCell[T any](key string, def func() T, opts ...Option) *Cell[T] {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if def == nil {
		def = func() T {
			var zero T
			return zero
		}
	}
	if o.codec == nil {
		o.codec = jsonCodec{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Cell[T]{
		key:            key,
		def:            def,
		kind:           o.kind,
		backend:        o.backend,
		store:          o.store,
		codec:          o.codec,
		persistOnClose: o.persistOnClose,
		failHard:       o.failHard,
		logger:         o.logger,
		observer:       o.observer,
	}
}

// Use creates a cell, passes it to fn and closes it on every exit path,
// including error returns and panics. Errors from the close-time save are
// not reported; call Save inside fn when they matter.
// @group Cell
func Use[T any](ctx context.Context, key string, def func() T, fn func(*Cell[T]) error, opts ...Option) error {
	c := NewCell(key, def, opts...)
	defer c.CloseCtx(ctx)
	return fn(c)
}

// Key returns the store key.
func (c *Cell[T]) Key() string { return c.key }

// Kind returns the storage namespace of the cell.
func (c *Cell[T]) Kind() Kind { return c.kind }

// IsLoaded reports whether the value is cached in memory.
func (c *Cell[T]) IsLoaded() bool { return c.loaded }

// IsDirty reports whether the cached value may differ from the stored one.
func (c *Cell[T]) IsDirty() bool { return c.dirty }

// ReplaceCodec swaps the codec. It is only allowed before the cell first
// reads or writes its store; clearing the cache does not reopen the window.
func (c *Cell[T]) ReplaceCodec(codec Codec) error {
	if c.consumed {
		return opError("replace codec", c.key, ErrCellConsumed, nil)
	}
	if c.used || c.loaded {
		return opError("replace codec", c.key, ErrCellLoaded, nil)
	}
	if codec == nil {
		codec = jsonCodec{}
	}
	c.codec = codec
	return nil
}

// Get returns the current value, loading it from the store on first use.
// A missing or unreadable entry yields the default value. An entry that
// cannot be decoded, including one the store reports as ErrCorruptEntry,
// panics with *DecodeError unless the cell was built with
// WithFailHardOnDecodeError(false).
// @group Cell
func (c *Cell[T]) Get() T {
	return c.GetCtx(context.Background())
}

func (c *Cell[T]) GetCtx(ctx context.Context) T {
	return *c.resolve(ctx)
}

// GetMut returns a pointer to the cached value and marks the cell dirty.
// The pointer is valid until the next Set, Remove, Take or Close.
// @group Cell
//
// Example: mutate in place
//
//	tags := storagedata.NewCell("tags", func() []string { return nil })
//	p := tags.GetMut()
//	*p = append(*p, "new")
//	_ = tags.Save()
func (c *Cell[T]) GetMut() *T {
	return c.GetMutCtx(context.Background())
}

func (c *Cell[T]) GetMutCtx(ctx context.Context) *T {
	v := c.resolve(ctx)
	c.dirty = true
	return v
}

// Update applies fn to the cached value and marks the cell dirty.
func (c *Cell[T]) Update(fn func(*T)) {
	c.UpdateCtx(context.Background(), fn)
}

func (c *Cell[T]) UpdateCtx(ctx context.Context, fn func(*T)) {
	v := c.GetMutCtx(ctx)
	if fn != nil {
		fn(v)
	}
}

// Set writes value through to the store and replaces the cached value.
// The cache is updated even when the write fails; the cell then stays dirty
// so a later Save or Close retries.
// @group Cell
func (c *Cell[T]) Set(value T) error {
	return c.SetCtx(context.Background(), value)
}

func (c *Cell[T]) SetCtx(ctx context.Context, value T) error {
	if c.consumed {
		return opError("set", c.key, ErrCellConsumed, nil)
	}
	err := c.write(ctx, "set", value)
	c.value = value
	c.loaded = true
	c.dirty = err != nil
	return err
}

// IsSet reports whether the value is cached or the store holds the key.
// It never loads or decodes the stored entry.
// @group Cell
func (c *Cell[T]) IsSet() bool {
	return c.IsSetCtx(context.Background())
}

func (c *Cell[T]) IsSetCtx(ctx context.Context) bool {
	c.mustUsable()
	if c.loaded {
		return true
	}
	start := time.Now()
	_, ok, err := c.backingStore().Get(ctx, c.key)
	c.observe(ctx, "is_set", ok, err, start)
	return err == nil && ok
}

// Remove deletes the key from the store. The cached value is cleared and the
// dirty flag reset whether or not the store removal succeeded.
// @group Cell
func (c *Cell[T]) Remove() error {
	return c.RemoveCtx(context.Background())
}

func (c *Cell[T]) RemoveCtx(ctx context.Context) error {
	if c.consumed {
		return opError("remove", c.key, ErrCellConsumed, nil)
	}
	start := time.Now()
	err := c.backingStore().Delete(ctx, c.key)
	if err != nil {
		err = opError("remove", c.key, ErrStoreRemove, err)
	}
	c.observe(ctx, "remove", false, err, start)
	c.finalize(ctx, true, false)
	return err
}

// Take finalizes the cell like Close, minus the cache clear, and returns the
// value by ownership. The cell is consumed: write paths return
// ErrCellConsumed, read paths panic with it and Close becomes a no-op.
// @group Cell
func (c *Cell[T]) Take() T {
	return c.TakeCtx(context.Background())
}

func (c *Cell[T]) TakeCtx(ctx context.Context) T {
	c.mustUsable()
	c.finalize(ctx, false, true)
	value := *c.resolve(ctx)
	var zero T
	c.value = zero
	c.loaded = false
	c.consumed = true
	return value
}

// Save writes the value to the store. It is a no-op when the cell is clean
// and the store already holds the key; a missing key is always written, so
// the default value gets persisted on first save.
// @group Cell
func (c *Cell[T]) Save() error {
	return c.SaveCtx(context.Background())
}

func (c *Cell[T]) SaveCtx(ctx context.Context) error {
	if c.consumed {
		return opError("save", c.key, ErrCellConsumed, nil)
	}
	return c.save(ctx)
}

// Close finalizes the cell: it saves when persist-on-close is enabled, then
// clears the cache. Save errors are logged, not returned.
// @group Cell
func (c *Cell[T]) Close() {
	c.CloseCtx(context.Background())
}

func (c *Cell[T]) CloseCtx(ctx context.Context) {
	if c.consumed {
		return
	}
	c.finalize(ctx, true, true)
}

// String formats the current value, loading it if needed.
func (c *Cell[T]) String() string {
	return fmt.Sprint(c.Get())
}

func (c *Cell[T]) isConsumed() bool { return c.consumed }

func (c *Cell[T]) mustUsable() {
	if c.consumed {
		panic(opError("read", c.key, ErrCellConsumed, nil))
	}
}

func (c *Cell[T]) resolve(ctx context.Context) *T {
	c.mustUsable()
	if !c.loaded {
		c.value = c.load(ctx)
		c.loaded = true
	}
	return &c.value
}

func (c *Cell[T]) load(ctx context.Context) T {
	store := c.backingStore()
	start := time.Now()
	raw, ok, err := store.Get(ctx, c.key)
	c.observe(ctx, "load", ok, err, start)
	if err != nil {
		if errors.Is(err, ErrCorruptEntry) {
			return c.decodeFailed(ctx, err)
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "storage read failed, using default",
			attrKey(c.key), attrDriver(store.Driver()), attrError(err))
		return c.def()
	}
	if !ok {
		return c.def()
	}
	var out T
	if err := c.codec.Decode(raw, &out); err != nil {
		return c.decodeFailed(ctx, err)
	}
	return out
}

func (c *Cell[T]) decodeFailed(ctx context.Context, err error) T {
	if c.failHard {
		panic(&DecodeError{Key: c.key, Err: err})
	}
	c.logger.LogAttrs(ctx, slog.LevelWarn, "stored value could not be decoded, using default",
		attrKey(c.key), slog.String("codec", c.codec.Name()), attrError(err))
	return c.def()
}

func (c *Cell[T]) save(ctx context.Context) error {
	if !c.dirty {
		// Only a confirmed miss lets a clean cell write; an unreadable entry
		// is left alone.
		start := time.Now()
		_, ok, err := c.backingStore().Get(ctx, c.key)
		if err != nil {
			err = opError("save", c.key, ErrStoreRead, err)
			c.observe(ctx, "save", false, err, start)
			return err
		}
		if ok {
			c.observe(ctx, "save", true, nil, start)
			return nil
		}
	}
	value := c.resolve(ctx)
	if err := c.write(ctx, "save", *value); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (c *Cell[T]) write(ctx context.Context, op string, value T) error {
	store := c.backingStore()
	start := time.Now()
	encoded, err := c.codec.Encode(value)
	if err != nil {
		err = opError(op, c.key, ErrEncode, err)
		c.observe(ctx, op, false, err, start)
		return err
	}
	if err := store.Set(ctx, c.key, encoded); err != nil {
		err = opError(op, c.key, ErrStoreWrite, err)
		c.observe(ctx, op, false, err, start)
		return err
	}
	c.observe(ctx, op, false, nil, start)
	return nil
}

func (c *Cell[T]) finalize(ctx context.Context, clear, persist bool) {
	if persist && c.persistOnClose {
		if err := c.save(ctx); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "storage save on close failed",
				attrKey(c.key), attrOp("close"), attrError(err))
		}
	}
	if clear {
		var zero T
		c.value = zero
		c.loaded = false
	}
	c.dirty = false
}

func (c *Cell[T]) backingStore() Store {
	c.used = true
	if c.store == nil {
		backend := c.backend
		if backend == nil {
			backend = DefaultBackend()
		}
		c.store = backend.Store(c.kind)
	}
	return c.store
}

func (c *Cell[T]) observe(ctx context.Context, op string, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnStorageOp(ctx, op, c.key, hit, err, time.Since(start), c.backingStore().Driver())
}
