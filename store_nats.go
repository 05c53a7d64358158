package storagedata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

var errNATSKeyValueUnavailable = errors.New("nats storage key-value unavailable")

// NATSKeyValue captures the subset of nats.KeyValue used by the store.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
}

type natsStore struct {
	kv     NATSKeyValue
	prefix string
	conn   *nats.Conn
}

func newNATSStore(kv NATSKeyValue, prefix string) Store {
	if prefix == "" {
		prefix = defaultStoragePrefix
	}
	return &natsStore{kv: kv, prefix: prefix}
}

// connectNATSKeyValue dials url and binds bucket, creating it when missing.
func connectNATSKeyValue(url, bucket string) (nats.KeyValue, *nats.Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("nats jetstream: %w", err)
	}
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("nats key-value bucket %q: %w", bucket, err)
	}
	return kv, nc, nil
}

func (s *natsStore) Driver() Driver { return DriverNATS }

func (s *natsStore) Get(_ context.Context, key string) (string, bool, error) {
	if s.kv == nil {
		return "", false, errNATSKeyValueUnavailable
	}
	entry, err := s.kv.Get(s.storageKey(key))
	if isNATSMiss(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if entry.Operation() == nats.KeyValueDelete || entry.Operation() == nats.KeyValuePurge {
		return "", false, nil
	}
	return string(entry.Value()), true, nil
}

func (s *natsStore) Set(_ context.Context, key string, value string) error {
	if s.kv == nil {
		return errNATSKeyValueUnavailable
	}
	_, err := s.kv.Put(s.storageKey(key), []byte(value))
	return err
}

func (s *natsStore) Delete(_ context.Context, key string) error {
	if s.kv == nil {
		return errNATSKeyValueUnavailable
	}
	if err := s.kv.Delete(s.storageKey(key)); err != nil && !isNATSMiss(err) {
		return err
	}
	return nil
}

// Close drains a connection the store dialed itself.
func (s *natsStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

// storageKey keeps arbitrary keys inside the NATS key alphabet.
func (s *natsStore) storageKey(key string) string {
	return "p." + encodeNATSKeyPart(s.prefix) + ".k." + encodeNATSKeyPart(key)
}

func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}
