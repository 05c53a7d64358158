package storagedata

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const encryptionPrefix = "enc1:"

var (
	ErrEncryptionKey = errors.New("storagedata: encryption key must be 16, 24, or 32 bytes")
	// ErrDecryptFailed wraps ErrCorruptEntry: the entry exists but was sealed
	// under another key or damaged.
	ErrDecryptFailed = fmt.Errorf("%w: decrypt failed", ErrCorruptEntry)
)

type encryptingStore struct {
	inner Store
	aead  cipher.AEAD
}

func newEncryptingStore(inner Store, key []byte) (Store, error) {
	if len(key) == 0 {
		return inner, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrEncryptionKey
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &encryptingStore{inner: inner, aead: aead}, nil
}

func (s *encryptingStore) Driver() Driver { return s.inner.Driver() }

func (s *encryptingStore) Get(ctx context.Context, key string) (string, bool, error) {
	body, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return body, ok, err
	}
	plain, err := s.decrypt(body)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

func (s *encryptingStore) Set(ctx context.Context, key string, value string) error {
	enc, err := s.encrypt(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, enc)
}

func (s *encryptingStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *encryptingStore) Close() error { return CloseStore(s.inner) }

// encrypt returns "enc1:" + base64url(nonce || ciphertext).
func (s *encryptingStore) encrypt(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return encryptionPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// decrypt passes values written before encryption was enabled through as-is.
func (s *encryptingStore) decrypt(in string) (string, error) {
	body, ok := strings.CutPrefix(in, encryptionPrefix)
	if !ok {
		return in, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", ErrDecryptFailed
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", ErrDecryptFailed
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
