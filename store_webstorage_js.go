//go:build js && wasm

package storagedata

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
)

// webStorageStore is backed by window.localStorage or window.sessionStorage.
type webStorageStore struct {
	area   js.Value
	prefix string
}

func newWebStorageStore(kind Kind, prefix string) (store Store, err error) {
	name := "localStorage"
	if kind == KindSession {
		name = "sessionStorage"
	}
	// Accessing storage throws when it is disabled (privacy modes, sandboxed frames).
	defer func() {
		if r := recover(); r != nil {
			store, err = nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, name, r)
		}
	}()
	area := js.Global().Get(name)
	if area.IsUndefined() || area.IsNull() {
		return nil, fmt.Errorf("%w: %s not available", ErrStoreUnavailable, name)
	}
	return &webStorageStore{area: area, prefix: prefix}, nil
}

func (s *webStorageStore) Driver() Driver { return DriverWebStorage }

func (s *webStorageStore) Get(_ context.Context, key string) (value string, ok bool, err error) {
	defer recoverJSError(&err)
	v := s.area.Call("getItem", prefixedKey(s.prefix, key))
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (s *webStorageStore) Set(_ context.Context, key string, value string) (err error) {
	defer recoverJSError(&err)
	s.area.Call("setItem", prefixedKey(s.prefix, key), value)
	return nil
}

func (s *webStorageStore) Delete(_ context.Context, key string) (err error) {
	defer recoverJSError(&err)
	s.area.Call("removeItem", prefixedKey(s.prefix, key))
	return nil
}

func recoverJSError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	var jsErr js.Error
	if e, ok := r.(error); ok && errors.As(e, &jsErr) {
		if jsErr.Value.Get("name").String() == "QuotaExceededError" {
			*err = fmt.Errorf("%w: %s", ErrQuotaExceeded, jsErr.Error())
			return
		}
		*err = jsErr
		return
	}
	panic(r)
}
