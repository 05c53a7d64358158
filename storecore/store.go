package storecore

import "context"

// Store is the key-value contract every backing store implements.
// Values are opaque strings produced by a codec; Get reports a missing key
// with ok=false and a nil error.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
