// Package storagefake provides an in-memory store that records every call,
// plus failure injection, for testing code built on storagedata cells.
package storagefake

import (
	"context"
	"sync"
	"testing"

	"github.com/goforj/storagedata"
)

// Op identifies a store operation for assertions.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpDelete Op = "delete"
)

// Fake is a deterministic in-memory store with call counting.
type Fake struct {
	inner storagedata.Store

	mu     sync.Mutex
	counts map[Op]map[string]int
	fail   map[Op]error
}

// New creates a Fake backed by the memory driver.
func New() *Fake {
	return &Fake{
		inner:  storagedata.NewMemoryStore(context.Background()),
		counts: make(map[Op]map[string]int),
		fail:   make(map[Op]error),
	}
}

// Store returns the counting store to inject into cells under test.
func (f *Fake) Store() storagedata.Store { return (*countingStore)(f) }

// Backend returns a backend that serves the fake for both kinds.
func (f *Fake) Backend() *storagedata.Backend {
	return storagedata.NewBackend(f.Store(), f.Store())
}

// Fail makes every later op return err. A nil err clears the failure.
func (f *Fake) Fail(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Seed writes a raw stored string without recording a call.
func (f *Fake) Seed(key, raw string) {
	_ = f.inner.Set(context.Background(), key, raw)
}

// Raw reads the stored string without recording a call.
func (f *Fake) Raw(key string) (string, bool) {
	v, ok, _ := f.inner.Get(context.Background(), key)
	return v, ok
}

// Reset clears recorded counts and injected failures.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[Op]map[string]int)
	f.fail = make(map[Op]error)
}

// Count returns calls for op+key.
func (f *Fake) Count(op Op, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[op][key]
}

// Total returns total calls for an op across keys.
func (f *Fake) Total(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int
	for _, v := range f.counts[op] {
		sum += v
	}
	return sum
}

// AssertCalled verifies key was touched by op the expected number of times.
func (f *Fake) AssertCalled(t testing.TB, op Op, key string, times int) {
	t.Helper()
	if got := f.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, key, times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (f *Fake) AssertNotCalled(t testing.TB, op Op, key string) {
	t.Helper()
	if got := f.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, key, got)
	}
}

// AssertTotal ensures the total call count for an op matches times.
func (f *Fake) AssertTotal(t testing.TB, op Op, times int) {
	t.Helper()
	if got := f.Total(op); got != times {
		t.Fatalf("expected %s total=%d, got %d", op, times, got)
	}
}

func (f *Fake) record(op Op, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		f.counts[op] = make(map[string]int)
	}
	f.counts[op][key]++
	return f.fail[op]
}

// countingStore is the Store view of a Fake.
type countingStore Fake

func (s *countingStore) fake() *Fake { return (*Fake)(s) }

func (s *countingStore) Driver() storagedata.Driver { return s.inner.Driver() }

func (s *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.fake().record(OpGet, key); err != nil {
		return "", false, err
	}
	return s.inner.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value string) error {
	if err := s.fake().record(OpSet, key); err != nil {
		return err
	}
	return s.inner.Set(ctx, key, value)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	if err := s.fake().record(OpDelete, key); err != nil {
		return err
	}
	return s.inner.Delete(ctx, key)
}
