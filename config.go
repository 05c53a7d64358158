package storagedata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultStoragePrefix = "app"
	defaultSQLTable      = "storage_entries"
	defaultNATSBucket    = "storage"
	defaultDynamoTable   = "storage_entries"
	defaultDynamoRegion  = "us-east-1"
)

// ErrParsingConfig is returned when environment configuration cannot be parsed.
var ErrParsingConfig = errors.New("storagedata: failed to parse config")

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "storagedata")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	Driver Driver

	// Kind is informational for drivers that map kinds to separate namespaces.
	Kind Kind

	// Prefix namespaces keys on shared backends (redis, sql, nats, dynamodb).
	Prefix string

	// FileDir controls where the file driver keeps entries.
	FileDir string

	// RedisClient is used by DriverRedis. When nil, RedisURL is dialed.
	RedisClient RedisClient
	RedisURL    string

	// SQLDriverName is one of sqlite, mysql or pgx.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// NATSKeyValue is used by DriverNATS. When nil, NATSURL is dialed and
	// NATSBucket bound (or created).
	NATSKeyValue NATSKeyValue
	NATSURL      string
	NATSBucket   string

	// DynamoClient is used by DriverDynamo. When nil, one is built from the
	// default AWS config with DynamoRegion and DynamoEndpoint.
	DynamoClient   DynamoAPI
	DynamoEndpoint string
	DynamoRegion   string
	DynamoTable    string

	// MaxValueBytes rejects larger encoded values with ErrQuotaExceeded (0 disables).
	MaxValueBytes int

	// EncryptionKey enables AES-GCM at rest when 16, 24 or 32 bytes long.
	EncryptionKey []byte
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = defaultStoragePrefix
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.SQLDriverName == "" {
		c.SQLDriverName = "sqlite"
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.NATSBucket == "" {
		c.NATSBucket = defaultNATSBucket
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	return c
}

// Config is the environment-driven configuration for a Backend and the
// default cell options.
type Config struct {
	LocalDriver   string `env:"STORAGE_LOCAL_DRIVER" envDefault:"file"`
	SessionDriver string `env:"STORAGE_SESSION_DRIVER" envDefault:"memory"`
	Prefix        string `env:"STORAGE_PREFIX" envDefault:"app"`
	FileDir       string `env:"STORAGE_FILE_DIR"`

	RedisURL string `env:"STORAGE_REDIS_URL" envDefault:"redis://localhost:6379/0"`

	SQLDriver string `env:"STORAGE_SQL_DRIVER" envDefault:"sqlite"`
	SQLDSN    string `env:"STORAGE_SQL_DSN" envDefault:"storagedata.db"`
	SQLTable  string `env:"STORAGE_SQL_TABLE" envDefault:"storage_entries"`

	NATSURL    string `env:"STORAGE_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSBucket string `env:"STORAGE_NATS_BUCKET" envDefault:"storage"`

	DynamoEndpoint string `env:"STORAGE_DYNAMO_ENDPOINT"`
	DynamoRegion   string `env:"STORAGE_DYNAMO_REGION" envDefault:"us-east-1"`
	DynamoTable    string `env:"STORAGE_DYNAMO_TABLE" envDefault:"storage_entries"`

	MaxValueBytes int `env:"STORAGE_MAX_VALUE_BYTES" envDefault:"0"`
	// EncryptionKey is base64 (standard alphabet) encoded.
	EncryptionKey string `env:"STORAGE_ENCRYPTION_KEY"`

	Codec                 Format `env:"STORAGE_CODEC" envDefault:"json"`
	DefaultKind           Kind   `env:"STORAGE_DEFAULT_KIND" envDefault:"local"`
	PersistOnClose        bool   `env:"STORAGE_PERSIST_ON_CLOSE" envDefault:"true"`
	FailHardOnDecodeError bool   `env:"STORAGE_FAIL_HARD_ON_DECODE_ERROR" envDefault:"true"`
}

var dotenvLoaded sync.Once

// LoadConfig reads Config from the process environment. A .env file in the
// working directory is loaded once, if present; real environment variables win.
// @group Config
//
// Example: backend from environment
//
//	cfg, err := storagedata.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	backend, err := storagedata.NewBackendFromConfig(ctx, cfg)
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// ParseConfig reads Config from the given variables instead of the process
// environment.
// @group Config
func ParseConfig(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// StoreConfig returns the store configuration for kind.
func (c Config) StoreConfig(kind Kind) (StoreConfig, error) {
	driver := c.LocalDriver
	if kind == KindSession {
		driver = c.SessionDriver
	}
	var key []byte
	if c.EncryptionKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
		if err != nil {
			return StoreConfig{}, errors.Join(ErrParsingConfig, fmt.Errorf("STORAGE_ENCRYPTION_KEY: %w", err))
		}
		key = decoded
	}
	return StoreConfig{
		Driver:         Driver(driver),
		Kind:           kind,
		Prefix:         c.Prefix,
		FileDir:        c.FileDir,
		RedisURL:       c.RedisURL,
		SQLDriverName:  c.SQLDriver,
		SQLDSN:         c.SQLDSN,
		SQLTable:       c.SQLTable,
		NATSURL:        c.NATSURL,
		NATSBucket:     c.NATSBucket,
		DynamoEndpoint: c.DynamoEndpoint,
		DynamoRegion:   c.DynamoRegion,
		DynamoTable:    c.DynamoTable,
		MaxValueBytes:  c.MaxValueBytes,
		EncryptionKey:  key,
	}, nil
}

// CellOptions converts the cell defaults of c into options for NewCell or
// Storage.
func (c Config) CellOptions() []Option {
	return []Option{
		WithKind(c.DefaultKind),
		WithFormat(c.Codec),
		WithPersistOnClose(c.PersistOnClose),
		WithFailHardOnDecodeError(c.FailHardOnDecodeError),
	}
}

// NewBackendFromConfig builds the local and session stores described by cfg.
// Unlike NewStore, a store that fails to initialize is reported as an error.
// @group Config
func NewBackendFromConfig(ctx context.Context, cfg Config) (*Backend, error) {
	stores := make([]Store, 0, 2)
	for _, kind := range []Kind{KindLocal, KindSession} {
		sc, err := cfg.StoreConfig(kind)
		if err != nil {
			return nil, err
		}
		store := NewStore(ctx, sc)
		if es, ok := store.(*errorStore); ok {
			for _, opened := range stores {
				_ = CloseStore(opened)
			}
			return nil, fmt.Errorf("%s store: %w", kind, es.err)
		}
		stores = append(stores, store)
	}
	return NewBackend(stores[0], stores[1]), nil
}
