//go:build !(js && wasm)

package storagedata

func newPlatformBackend() *Backend {
	local, err := newFileStore(defaultFileDir(), "")
	if err != nil {
		local = unavailableStore(DriverFile, err)
	}
	return NewBackend(local, newMemoryStore())
}
