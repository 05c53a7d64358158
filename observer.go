package storagedata

import (
	"context"
	"time"
)

// Observer receives events for store-touching cell operations.
// It is called after each operation completes.
type Observer interface {
	OnStorageOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)

// OnStorageOp implements Observer.
func (f ObserverFunc) OnStorageOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur, driver)
}
