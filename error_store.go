package storagedata

import (
	"context"
	"errors"
	"fmt"
)

// errorStore is returned when a driver fails to initialize; it preserves the driver
// identity while surfacing the construction error on every call.
type errorStore struct {
	driver Driver
	err    error
}

func unavailableStore(driver Driver, err error) Store {
	if !errors.Is(err, ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return &errorStore{driver: driver, err: err}
}

func (e *errorStore) Driver() Driver                                    { return e.driver }
func (e *errorStore) Get(context.Context, string) (string, bool, error) { return "", false, e.err }
func (e *errorStore) Set(context.Context, string, string) error         { return e.err }
func (e *errorStore) Delete(context.Context, string) error              { return e.err }
