package storagedata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStoreUnavailable reports that the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("storagedata: store unavailable")
	// ErrEncode reports that a value could not be turned into its stored form.
	ErrEncode = errors.New("storagedata: encode failed")
	// ErrDecode reports that a stored string could not be turned back into a value.
	ErrDecode = errors.New("storagedata: decode failed")
	// ErrCorruptEntry is wrapped by stores that hold an entry for a key but
	// cannot turn it back into the string that was written.
	ErrCorruptEntry = errors.New("storagedata: corrupt stored entry")
	// ErrStoreRead reports that the store could not be read.
	ErrStoreRead = errors.New("storagedata: store read failed")
	// ErrStoreWrite reports that the store rejected a write.
	ErrStoreWrite = errors.New("storagedata: store write failed")
	// ErrStoreRemove reports that the store rejected a removal.
	ErrStoreRemove = errors.New("storagedata: store remove failed")
	// ErrQuotaExceeded is returned by stores that enforce a maximum value size.
	ErrQuotaExceeded = errors.New("storagedata: value exceeds store quota")
	// ErrCellConsumed is returned (or raised, on read paths) after Take.
	ErrCellConsumed = errors.New("storagedata: cell already consumed")
	// ErrCellLoaded is returned when the codec is replaced after the cell
	// first touched its store.
	ErrCellLoaded = errors.New("storagedata: cell already loaded")
	// ErrUnknownFormat is returned for an unsupported codec format name.
	ErrUnknownFormat = errors.New("storagedata: unknown codec format")
)

func opError(op, key string, kind, cause error) error {
	if cause == nil {
		return fmt.Errorf("storagedata: %s %q: %w", op, key, kind)
	}
	return fmt.Errorf("storagedata: %s %q: %w: %w", op, key, kind, cause)
}

// DecodeError is the panic value raised when a stored entry cannot be
// decoded and the cell is configured to fail hard.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("storagedata: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// BatchError is returned by Storage.Save and Storage.Clear when one or more
// cells failed. Keys is only populated when the caller asked for it.
type BatchError struct {
	Keys []string
	Err  error
}

func (e *BatchError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("storagedata: batch failed: %v", e.Err)
	}
	return fmt.Sprintf("storagedata: batch failed for %s: %v", strings.Join(e.Keys, ", "), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
