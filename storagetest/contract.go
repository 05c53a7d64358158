package storagetest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goforj/storagedata/storecore"
)

// Options configures shared store contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// NullSemantics expects every read to miss.
	NullSemantics bool
}

// Store is the minimal contract required by RunStoreContract.
type Store = storecore.Store

// RunStoreContract runs a backend-agnostic store contract suite. Keys carry
// a random suffix so runs against shared backends do not collide.
func RunStoreContract(t *testing.T, store Store, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	run := uuid.NewString()
	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + run + ":" + s
	}

	// Missing keys miss without error.
	if v, ok, err := store.Get(ctx, key("missing")); err != nil || ok {
		t.Fatalf("expected miss for unknown key; v=%q ok=%v err=%v", v, ok, err)
	}

	// Set/Get round-trip, including values codecs commonly produce.
	values := map[string]string{
		"plain":   "value",
		"json":    `{"name":"Ada","tags":["x","y"]}`,
		"unicode": "héllo wörld ✓",
		"empty":   "",
		"base64":  "gqRuYW1lo0FkYQ==",
	}
	for name, want := range values {
		if err := store.Set(ctx, key(name), want); err != nil {
			t.Fatalf("set %s failed: %v", name, err)
		}
		got, ok, err := store.Get(ctx, key(name))
		if err != nil {
			t.Fatalf("get %s failed: %v", name, err)
		}
		if opts.NullSemantics {
			if ok {
				t.Fatalf("expected miss for null semantics on %s", name)
			}
			continue
		}
		if !ok || got != want {
			t.Fatalf("unexpected get %s: ok=%v got=%q want=%q", name, ok, got, want)
		}
	}

	// Overwrite replaces the value.
	if err := store.Set(ctx, key("plain"), "second"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, ok, err := store.Get(ctx, key("plain")); err != nil {
		t.Fatalf("get after overwrite failed: %v", err)
	} else if !opts.NullSemantics && (!ok || got != "second") {
		t.Fatalf("expected overwritten value, got ok=%v value=%q", ok, got)
	}

	// Keys with separators and spaces are distinct.
	if err := store.Set(ctx, key("a:b c/d"), "1"); err != nil {
		t.Fatalf("set odd key failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, key("a:b c/e")); err != nil || ok {
		t.Fatalf("expected sibling key to miss; ok=%v err=%v", ok, err)
	}

	// Delete removes, and deleting a missing key is not an error.
	for name := range values {
		if err := store.Delete(ctx, key(name)); err != nil {
			t.Fatalf("delete %s failed: %v", name, err)
		}
		if _, ok, err := store.Get(ctx, key(name)); err != nil || ok {
			t.Fatalf("expected %s deleted; ok=%v err=%v", name, ok, err)
		}
	}
	if err := store.Delete(ctx, key("never-set")); err != nil {
		t.Fatalf("delete of missing key failed: %v", err)
	}
	if err := store.Delete(ctx, key("a:b c/d")); err != nil {
		t.Fatalf("delete odd key failed: %v", err)
	}
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
