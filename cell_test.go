package storagedata_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goforj/storagedata"
	"github.com/goforj/storagedata/storagefake"
)

type profile struct {
	Name string   `json:"name" yaml:"name" msgpack:"name" cbor:"name"`
	Age  int      `json:"age" yaml:"age" msgpack:"age" cbor:"age"`
	Tags []string `json:"tags" yaml:"tags" msgpack:"tags" cbor:"tags"`
}

func zero() int { return 0 }

func recoverPanic(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

func TestCellGetLoadsOnce(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "5")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))

	assert.Equal(t, 5, c.Get())
	assert.Equal(t, 5, c.Get())
	fake.AssertCalled(t, storagefake.OpGet, "n", 1)
	assert.True(t, c.IsLoaded())
	assert.False(t, c.IsDirty())
}

func TestCellNewDoesNotTouchStore(t *testing.T) {
	fake := storagefake.New()
	_ = storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	fake.AssertTotal(t, storagefake.OpGet, 0)
	fake.AssertTotal(t, storagefake.OpSet, 0)
}

func TestCellMissingKeyUsesDefault(t *testing.T) {
	fake := storagefake.New()
	calls := 0
	c := storagedata.NewCell("missing", func() string {
		calls++
		return "fallback"
	}, storagedata.WithStore(fake.Store()))

	assert.Equal(t, "fallback", c.Get())
	assert.Equal(t, "fallback", c.Get())
	assert.Equal(t, 1, calls)
}

func TestCellNilDefaultIsZeroValue(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell[[]string]("list", nil, storagedata.WithStore(fake.Store()))
	assert.Nil(t, c.Get())
}

func TestCellSetRoundTrip(t *testing.T) {
	fake := storagefake.New()
	want := profile{Name: "Ada", Age: 36, Tags: []string{"math", "engines"}}

	c := storagedata.NewCell("profile", func() profile { return profile{} }, storagedata.WithStore(fake.Store()))
	require.NoError(t, c.Set(want))
	assert.False(t, c.IsDirty())

	fresh := storagedata.NewCell("profile", func() profile { return profile{} }, storagedata.WithStore(fake.Store()))
	assert.Equal(t, want, fresh.Get())
}

func TestCellSaveSkipsWhenCleanAndStored(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "9")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))

	require.NoError(t, c.Save())
	fake.AssertTotal(t, storagefake.OpSet, 0)

	_ = c.Get()
	require.NoError(t, c.Save())
	fake.AssertTotal(t, storagefake.OpSet, 0)
}

func TestCellSaveWritesDefaultWhenKeyMissing(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("n", func() int { return 7 }, storagedata.WithStore(fake.Store()))

	require.NoError(t, c.Save())
	fake.AssertCalled(t, storagefake.OpSet, "n", 1)
	raw, ok := fake.Raw("n")
	require.True(t, ok)
	assert.Equal(t, "7", raw)
}

func TestCellDecodeFailureHardModePanics(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "not-a-number")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))

	r := recoverPanic(func() { _ = c.Get() })
	require.NotNil(t, r)
	decodeErr, ok := r.(*storagedata.DecodeError)
	require.True(t, ok, "unexpected panic value %T", r)
	assert.Equal(t, "n", decodeErr.Key)
	assert.ErrorIs(t, decodeErr, storagedata.ErrDecode)

	r = recoverPanic(func() { _ = c.GetMut() })
	assert.IsType(t, &storagedata.DecodeError{}, r)
}

func TestCellDecodeFailureSoftModeFallsBack(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "not-a-number")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := storagedata.NewCell("n", func() int { return 42 },
		storagedata.WithStore(fake.Store()),
		storagedata.WithFailHardOnDecodeError(false),
		storagedata.WithLogger(logger),
	)

	assert.NotPanics(t, func() { assert.Equal(t, 42, c.Get()) })
	assert.Contains(t, buf.String(), "could not be decoded")
	assert.Contains(t, buf.String(), "key=n")
}

func TestCellRemoveClearsCache(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "3")
	calls := 0
	c := storagedata.NewCell("n", func() int {
		calls++
		return -1
	}, storagedata.WithStore(fake.Store()))

	assert.Equal(t, 3, c.Get())
	require.NoError(t, c.Remove())
	assert.False(t, c.IsLoaded())
	assert.False(t, c.IsDirty())
	assert.False(t, c.IsSet())
	_, ok := fake.Raw("n")
	assert.False(t, ok)

	assert.Equal(t, -1, c.Get())
	assert.Equal(t, 1, calls)
}

func TestCellRemoveFailureStillClearsCache(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "3")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	c.Update(func(n *int) { *n = 10 })

	boom := errors.New("boom")
	fake.Fail(storagefake.OpDelete, boom)
	err := c.Remove()
	require.Error(t, err)
	assert.ErrorIs(t, err, storagedata.ErrStoreRemove)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.IsLoaded())
	assert.False(t, c.IsDirty())

	// The store still holds the old entry, so the next read sees it.
	assert.Equal(t, 3, c.Get())
}

func TestCellCloseSavesDirtyValue(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("tags", func() []string { return nil }, storagedata.WithStore(fake.Store()))

	p := c.GetMut()
	*p = append(*p, "new")
	assert.True(t, c.IsDirty())
	c.Close()

	raw, ok := fake.Raw("tags")
	require.True(t, ok)
	assert.Equal(t, `["new"]`, raw)
	assert.False(t, c.IsLoaded())
}

func TestCellCountScenario(t *testing.T) {
	fake := storagefake.New()
	opts := []storagedata.Option{storagedata.WithStore(fake.Store())}

	c := storagedata.NewCell("count", zero, opts...)
	assert.Equal(t, 0, c.Get())
	*c.GetMut() += 1
	c.Close()

	raw, _ := fake.Raw("count")
	assert.Equal(t, "1", raw)

	again := storagedata.NewCell("count", zero, opts...)
	assert.Equal(t, 1, again.Get())
}

func TestCellPersistOnCloseDisabled(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("n", zero,
		storagedata.WithStore(fake.Store()),
		storagedata.WithPersistOnClose(false),
	)
	c.Update(func(n *int) { *n = 5 })
	c.Close()

	fake.AssertTotal(t, storagefake.OpSet, 0)
	assert.False(t, c.IsLoaded())
}

func TestCellSetFailureKeepsNewValueAndStaysDirty(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))

	boom := errors.New("quota")
	fake.Fail(storagefake.OpSet, boom)
	err := c.Set(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, storagedata.ErrStoreWrite)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, c.Get())
	assert.True(t, c.IsDirty())

	fake.Fail(storagefake.OpSet, nil)
	require.NoError(t, c.Save())
	assert.False(t, c.IsDirty())
	raw, _ := fake.Raw("n")
	assert.Equal(t, "4", raw)
}

func TestCellSaveFailureKeepsDirty(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	c.Update(func(n *int) { *n = 2 })

	fake.Fail(storagefake.OpSet, errors.New("down"))
	require.ErrorIs(t, c.Save(), storagedata.ErrStoreWrite)
	assert.True(t, c.IsDirty())
}

func TestCellEncodeFailure(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("f", func() float64 { return 0 }, storagedata.WithStore(fake.Store()))

	err := c.Set(math.Inf(1))
	require.ErrorIs(t, err, storagedata.ErrEncode)
	fake.AssertTotal(t, storagefake.OpSet, 0)
	assert.True(t, math.IsInf(c.Get(), 1))
}

func TestCellCloseLogsSaveFailure(t *testing.T) {
	fake := storagefake.New()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := storagedata.NewCell("n", zero,
		storagedata.WithStore(fake.Store()),
		storagedata.WithLogger(logger),
	)
	c.Update(func(n *int) { *n = 1 })
	fake.Fail(storagefake.OpSet, errors.New("disk full"))

	assert.NotPanics(t, c.Close)
	assert.Contains(t, buf.String(), "storage save on close failed")
	assert.Contains(t, buf.String(), "disk full")
	assert.False(t, c.IsDirty())
}

func TestCellStoreReadFailureUsesDefault(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "8")
	fake.Fail(storagefake.OpGet, errors.New("offline"))
	c := storagedata.NewCell("n", func() int { return 1 }, storagedata.WithStore(fake.Store()))

	assert.False(t, c.IsSet())
	assert.Equal(t, 1, c.Get())
}

func TestCellIsSetDoesNotDecode(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "{broken")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))

	assert.True(t, c.IsSet())
	assert.False(t, c.IsLoaded())

	empty := storagedata.NewCell("other", zero, storagedata.WithStore(fake.Store()))
	assert.False(t, empty.IsSet())
	_ = empty.Get()
	assert.True(t, empty.IsSet())
}

func TestCellTakeConsumes(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "3")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	c.Update(func(n *int) { *n++ })

	assert.Equal(t, 4, c.Take())
	raw, _ := fake.Raw("n")
	assert.Equal(t, "4", raw)

	assert.ErrorIs(t, c.Set(5), storagedata.ErrCellConsumed)
	assert.ErrorIs(t, c.Save(), storagedata.ErrCellConsumed)
	assert.ErrorIs(t, c.Remove(), storagedata.ErrCellConsumed)
	assert.ErrorIs(t, c.ReplaceCodec(nil), storagedata.ErrCellConsumed)
	r := recoverPanic(func() { _ = c.Get() })
	require.NotNil(t, r)
	assert.ErrorIs(t, r.(error), storagedata.ErrCellConsumed)

	writes := fake.Total(storagefake.OpSet)
	assert.NotPanics(t, c.Close)
	fake.AssertTotal(t, storagefake.OpSet, writes)
}

func TestCellTakeLoadsWhenUnloaded(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "11")
	c := storagedata.NewCell("n", zero,
		storagedata.WithStore(fake.Store()),
		storagedata.WithPersistOnClose(false),
	)
	assert.Equal(t, 11, c.Take())
	fake.AssertTotal(t, storagefake.OpSet, 0)
}

func TestUseClosesOnError(t *testing.T) {
	fake := storagefake.New()
	ctx := context.Background()
	boom := errors.New("handler failed")

	err := storagedata.Use(ctx, "visits", zero, func(c *storagedata.Cell[int]) error {
		c.UpdateCtx(ctx, func(n *int) { *n++ })
		return boom
	}, storagedata.WithStore(fake.Store()))

	assert.ErrorIs(t, err, boom)
	raw, _ := fake.Raw("visits")
	assert.Equal(t, "1", raw)
}

func TestUseClosesOnPanic(t *testing.T) {
	fake := storagefake.New()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = storagedata.Use(ctx, "visits", zero, func(c *storagedata.Cell[int]) error {
			c.Update(func(n *int) { *n = 9 })
			panic("boom")
		}, storagedata.WithStore(fake.Store()))
	})
	raw, _ := fake.Raw("visits")
	assert.Equal(t, "9", raw)
}

func TestCellReplaceCodec(t *testing.T) {
	fake := storagefake.New()
	c := storagedata.NewCell("p", func() profile { return profile{Name: "x"} }, storagedata.WithStore(fake.Store()))

	yaml, err := storagedata.CodecFor(storagedata.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, c.ReplaceCodec(yaml))
	require.NoError(t, c.Set(profile{Name: "Grace"}))
	raw, _ := fake.Raw("p")
	assert.Contains(t, raw, "name: Grace")

	assert.ErrorIs(t, c.ReplaceCodec(yaml), storagedata.ErrCellLoaded)
}

func TestCellFormats(t *testing.T) {
	want := profile{Name: "Linus", Age: 54, Tags: []string{"kernel"}}
	for _, format := range []storagedata.Format{
		storagedata.FormatJSON,
		storagedata.FormatYAML,
		storagedata.FormatMsgpack,
		storagedata.FormatCBOR,
	} {
		t.Run(string(format), func(t *testing.T) {
			fake := storagefake.New()
			opts := []storagedata.Option{storagedata.WithStore(fake.Store()), storagedata.WithFormat(format)}
			require.NoError(t, storagedata.NewCell("p", func() profile { return profile{} }, opts...).Set(want))
			got := storagedata.NewCell("p", func() profile { return profile{} }, opts...).Get()
			assert.Equal(t, want, got)
		})
	}
}

func TestCellUnknownFormatPanics(t *testing.T) {
	assert.Panics(t, func() {
		storagedata.NewCell("p", zero, storagedata.WithFormat("toml"))
	})
}

func TestCellObserver(t *testing.T) {
	fake := storagefake.New()
	var ops []string
	obs := storagedata.ObserverFunc(func(_ context.Context, op, key string, hit bool, err error, _ time.Duration, driver storagedata.Driver) {
		ops = append(ops, op)
		assert.Equal(t, "n", key)
		assert.Equal(t, storagedata.DriverMemory, driver)
	})
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()), storagedata.WithObserver(obs))

	_ = c.Get()
	require.NoError(t, c.Set(1))
	_ = c.IsSet()
	require.NoError(t, c.Remove())
	assert.Equal(t, []string{"load", "set", "remove"}, ops)
}

func TestCellKindSelectsStore(t *testing.T) {
	local := storagefake.New()
	session := storagefake.New()
	backend := storagedata.NewBackend(local.Store(), session.Store())

	l := storagedata.NewCell("k", zero, storagedata.WithBackend(backend))
	s := storagedata.NewCell("k", zero, storagedata.WithBackend(backend), storagedata.WithSession())
	assert.Equal(t, storagedata.KindLocal, l.Kind())
	assert.Equal(t, storagedata.KindSession, s.Kind())

	require.NoError(t, l.Set(1))
	require.NoError(t, s.Set(2))

	raw, _ := local.Raw("k")
	assert.Equal(t, "1", raw)
	raw, _ = session.Raw("k")
	assert.Equal(t, "2", raw)
}

func TestCellUnconfiguredStore(t *testing.T) {
	backend := storagedata.NewBackend(nil, nil)
	c := storagedata.NewCell("k", func() int { return 3 }, storagedata.WithBackend(backend))
	assert.False(t, c.IsSet())
	assert.Equal(t, 3, c.Get())
	assert.ErrorIs(t, c.Set(1), storagedata.ErrStoreUnavailable)
	assert.ErrorIs(t, c.Save(), storagedata.ErrStoreUnavailable)
}

func TestCellDefaultBackend(t *testing.T) {
	fake := storagefake.New()
	storagedata.SetDefaultBackend(fake.Backend())
	t.Cleanup(func() { storagedata.SetDefaultBackend(nil) })

	c := storagedata.NewCell("k", zero)
	require.NoError(t, c.Set(6))
	raw, _ := fake.Raw("k")
	assert.Equal(t, "6", raw)
	assert.Equal(t, "6", c.String())
}

func entryFile(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.entry"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestCellCorruptFileRecordFailsHardAndKeepsEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := storagedata.NewFileStore(ctx, dir)
	require.NoError(t, storagedata.NewCell("n", zero, storagedata.WithStore(store)).Set(41))

	path := entryFile(t, dir)
	require.NoError(t, os.WriteFile(path, []byte("XX41"), 0o644))

	c := storagedata.NewCell("n", zero, storagedata.WithStore(store))
	r := recoverPanic(func() { _ = c.Get() })
	var decodeErr *storagedata.DecodeError
	require.ErrorAs(t, r.(error), &decodeErr)
	assert.ErrorIs(t, decodeErr, storagedata.ErrCorruptEntry)

	c.Close()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "XX41", string(data))
}

func TestCellCorruptFileRecordSoftModeKeepsEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := storagedata.NewFileStore(ctx, dir)
	require.NoError(t, storagedata.NewCell("n", zero, storagedata.WithStore(store)).Set(41))
	path := entryFile(t, dir)
	require.NoError(t, os.WriteFile(path, []byte("XX41"), 0o644))

	c := storagedata.NewCell("n", func() int { return 2 },
		storagedata.WithStore(store),
		storagedata.WithFailHardOnDecodeError(false),
	)
	assert.Equal(t, 2, c.Get())
	require.ErrorIs(t, c.Save(), storagedata.ErrStoreRead)
	c.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "XX41", string(data))
}

func TestCellForeignEncryptionKeyKeepsEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	keyA := bytes.Repeat([]byte{0xA1}, 32)
	keyB := bytes.Repeat([]byte{0xB2}, 32)
	storeA := storagedata.NewFileStore(ctx, dir, storagedata.WithEncryptionKey(keyA))
	storeB := storagedata.NewFileStore(ctx, dir, storagedata.WithEncryptionKey(keyB))

	require.NoError(t, storagedata.NewCell("n", zero, storagedata.WithStore(storeA)).Set(41))

	rotated := storagedata.NewCell("n", zero, storagedata.WithStore(storeB))
	r := recoverPanic(func() { _ = rotated.Get() })
	require.NotNil(t, r)
	assert.ErrorIs(t, r.(error), storagedata.ErrDecryptFailed)
	rotated.Close()

	soft := storagedata.NewCell("n", zero,
		storagedata.WithStore(storeB),
		storagedata.WithFailHardOnDecodeError(false),
	)
	assert.Equal(t, 0, soft.Get())
	soft.Close()

	original := storagedata.NewCell("n", zero, storagedata.WithStore(storeA))
	assert.Equal(t, 41, original.Get())
}

func TestCellSaveReadFailureDoesNotWrite(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "8")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	assert.Equal(t, 8, c.Get())

	fake.Fail(storagefake.OpGet, errors.New("offline"))
	require.ErrorIs(t, c.Save(), storagedata.ErrStoreRead)
	c.Close()
	fake.AssertTotal(t, storagefake.OpSet, 0)
}

func TestCellReplaceCodecAfterRemove(t *testing.T) {
	fake := storagefake.New()
	fake.Seed("n", "1")
	c := storagedata.NewCell("n", zero, storagedata.WithStore(fake.Store()))
	_ = c.Get()
	require.NoError(t, c.Remove())
	require.False(t, c.IsLoaded())

	yaml, err := storagedata.CodecFor(storagedata.FormatYAML)
	require.NoError(t, err)
	assert.ErrorIs(t, c.ReplaceCodec(yaml), storagedata.ErrCellLoaded)

	fresh := storagedata.NewCell("m", zero, storagedata.WithStore(fake.Store()))
	_ = fresh.IsSet()
	assert.ErrorIs(t, fresh.ReplaceCodec(yaml), storagedata.ErrCellLoaded)
}
