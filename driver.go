package storagedata

import "github.com/goforj/storagedata/storecore"

// Driver identifies a storage backend.
type Driver = storecore.Driver

const (
	DriverNull       = storecore.DriverNull
	DriverFile       = storecore.DriverFile
	DriverMemory     = storecore.DriverMemory
	DriverRedis      = storecore.DriverRedis
	DriverSQL        = storecore.DriverSQL
	DriverNATS       = storecore.DriverNATS
	DriverDynamo     = storecore.DriverDynamo
	DriverWebStorage = storecore.DriverWebStorage
)

// Store is the key-value contract cells read from and write to.
type Store = storecore.Store
