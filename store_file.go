package storagedata

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
)

var fileRecordMagic = []byte("SDF1")

var errCorruptFileRecord = fmt.Errorf("%w: bad file record header", ErrCorruptEntry)

// fileStore keeps one file per key. Writes go to a temp file that is renamed
// into place so readers never observe a partial record.
type fileStore struct {
	dir    string
	prefix string
}

func newFileStore(dir, prefix string) (Store, error) {
	if dir == "" {
		dir = defaultFileDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &fileStore{dir: dir, prefix: prefix}, nil
}

func (s *fileStore) Driver() Driver {
	return DriverFile
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	value, err := decodeFileRecord(data)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *fileStore) Set(_ context.Context, key string, value string) error {
	tmp, err := createTempFile(s.dir, "entry-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(fileRecordMagic); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := renameFile(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) path(key string) string {
	sum := sha256.Sum256([]byte(prefixedKey(s.prefix, key)))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".entry")
}

func decodeFileRecord(data []byte) (string, error) {
	if len(data) < len(fileRecordMagic) || !bytes.Equal(data[:len(fileRecordMagic)], fileRecordMagic) {
		return "", errCorruptFileRecord
	}
	return string(data[len(fileRecordMagic):]), nil
}

func prefixedKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
