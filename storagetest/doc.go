// Package storagetest provides a reusable contract suite for storagedata
// stores.
//
// Example pattern (driver test):
//
//	func TestRedisStoreContract(t *testing.T) {
//		client := newTestRedisClient(t)
//		store := storagedata.NewRedisStore(ctx, client, storagedata.WithPrefix("test"))
//		storagetest.RunStoreContract(t, store, storagetest.Options{CaseName: t.Name()})
//	}
package storagetest
