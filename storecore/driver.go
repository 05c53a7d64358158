package storecore

// Driver identifies a storage backend.
type Driver string

const (
	DriverNull       Driver = "null"
	DriverFile       Driver = "file"
	DriverMemory     Driver = "memory"
	DriverRedis      Driver = "redis"
	DriverSQL        Driver = "sql"
	DriverNATS       Driver = "nats"
	DriverDynamo     Driver = "dynamodb"
	DriverWebStorage Driver = "webstorage"
)
