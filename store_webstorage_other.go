//go:build !(js && wasm)

package storagedata

import "fmt"

func newWebStorageStore(kind Kind, _ string) (Store, error) {
	return nil, fmt.Errorf("%w: %s web storage requires js/wasm", ErrStoreUnavailable, kind)
}
