//go:build js && wasm

package storagedata

func newPlatformBackend() *Backend {
	local, err := newWebStorageStore(KindLocal, "")
	if err != nil {
		local = unavailableStore(DriverWebStorage, err)
	}
	session, err := newWebStorageStore(KindSession, "")
	if err != nil {
		session = unavailableStore(DriverWebStorage, err)
	}
	return NewBackend(local, session)
}
