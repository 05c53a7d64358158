package storagedata

import (
	"context"
	"fmt"
	"io"
)

// NewStore returns a concrete store for the requested driver.
// A store that cannot be initialized is returned as a store whose every
// operation fails with the initialization error (wrapping ErrStoreUnavailable),
// so cells built on it degrade to their defaults.
// @group Constructors
//
// Example: select driver explicitly
//
//	ctx := context.Background()
//	store := storagedata.NewStore(ctx, storagedata.StoreConfig{
//		Driver: storagedata.DriverMemory,
//	})
//	fmt.Println(store.Driver()) // memory
func NewStore(ctx context.Context, cfg StoreConfig) Store {
	cfg = cfg.withDefaults()
	store, err := newDriverStore(ctx, cfg)
	if err != nil {
		return unavailableStore(cfg.Driver, err)
	}
	store = newQuotaStore(store, cfg.MaxValueBytes)
	wrapped, err := newEncryptingStore(store, cfg.EncryptionKey)
	if err != nil {
		_ = CloseStore(store)
		return unavailableStore(cfg.Driver, err)
	}
	return wrapped
}

// CloseStore releases connections held by a store built with NewStore. It is
// a no-op for stores that hold none, and safe on any Store.
// @group Constructors
func CloseStore(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func newDriverStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return newMemoryStore(), nil
	case DriverNull:
		return newNullStore(), nil
	case DriverFile:
		return newFileStore(cfg.FileDir, cfg.Prefix)
	case DriverRedis:
		if cfg.RedisClient != nil {
			return newRedisStore(cfg.RedisClient, cfg.Prefix), nil
		}
		if cfg.RedisURL == "" {
			return nil, errRedisClientUnavailable
		}
		rc, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store := newRedisStore(rc, cfg.Prefix).(*redisStore)
		store.owned = rc
		return store, nil
	case DriverSQL:
		return newSQLStore(ctx, cfg)
	case DriverNATS:
		if cfg.NATSKeyValue != nil {
			return newNATSStore(cfg.NATSKeyValue, cfg.Prefix), nil
		}
		if cfg.NATSURL == "" {
			return nil, errNATSKeyValueUnavailable
		}
		kv, conn, err := connectNATSKeyValue(cfg.NATSURL, cfg.NATSBucket)
		if err != nil {
			return nil, err
		}
		store := newNATSStore(kv, cfg.Prefix).(*natsStore)
		store.conn = conn
		return store, nil
	case DriverDynamo:
		return newDynamoStore(ctx, cfg)
	case DriverWebStorage:
		return newWebStorageStore(cfg.Kind, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewStoreWith builds a store using a driver and a set of functional options.
// @group Constructors
//
// Example: redis store (options)
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store := storagedata.NewStoreWith(ctx, storagedata.DriverRedis,
//		storagedata.WithRedisClient(redisClient),
//		storagedata.WithPrefix("app"),
//	)
//	fmt.Println(store.Driver()) // redis
func NewStoreWith(ctx context.Context, driver Driver, opts ...StoreOption) Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewMemoryStore is a convenience for an in-process store.
// @group Constructors
func NewMemoryStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

// NewFileStore is a convenience for a filesystem-backed store.
// @group Constructors
//
// Example: file helper
//
//	store := storagedata.NewFileStore(ctx, "/tmp/my-app-state")
//	fmt.Println(store.Driver()) // file
func NewFileStore(ctx context.Context, dir string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverFile, append([]StoreOption{WithFileDir(dir)}, opts...)...)
}

// NewRedisStore is a convenience for a redis-backed store.
// @group Constructors
func NewRedisStore(ctx context.Context, client RedisClient, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverRedis, append([]StoreOption{WithRedisClient(client)}, opts...)...)
}

// NewNullStore returns a store that keeps nothing.
// @group Constructors
func NewNullStore(ctx context.Context) Store {
	return NewStoreWith(ctx, DriverNull)
}
