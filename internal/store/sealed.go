package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/evertrade/vendorgate/internal/errors"
)

const sealedSalt = "vendorgate-session-store"

// SealedKV wraps another KV and encrypts values at rest with AES-GCM.
// The key is derived from a passphrase via PBKDF2. Keys stay plaintext,
// only values are sealed.
type SealedKV struct {
	inner KV
	key   []byte
}

// Seal wraps inner so that values are encrypted with a passphrase-derived key.
func Seal(inner KV, passphrase string) *SealedKV {
	return &SealedKV{
		inner: inner,
		key:   pbkdf2.Key([]byte(passphrase), []byte(sealedSalt), 100000, 32, sha256.New),
	}
}

// Get decrypts and returns the value for key
func (kv *SealedKV) Get(key string) (string, bool, error) {
	sealed, ok, err := kv.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}

	plain, err := kv.open(sealed)
	if err != nil {
		// Wrong passphrase or tampered value; treat as absent rather than
		// surfacing ciphertext garbage to the session layer.
		return "", false, errors.Wrap(errors.ErrCodeStoreSealFailed, "cannot unseal stored value", err)
	}

	return plain, true, nil
}

// Set encrypts value and stores it under key
func (kv *SealedKV) Set(key, value string) error {
	sealed, err := kv.seal(value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreSealFailed, "cannot seal value", err)
	}
	return kv.inner.Set(key, sealed)
}

// Delete removes key from the wrapped store
func (kv *SealedKV) Delete(key string) error {
	return kv.inner.Delete(key)
}

// Close closes the wrapped store
func (kv *SealedKV) Close() error {
	return kv.inner.Close()
}

func (kv *SealedKV) seal(plaintext string) (string, error) {
	block, err := aes.NewCipher(kv.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (kv *SealedKV) open(sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(kv.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New(errors.ErrCodeStoreSealFailed, "sealed value too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}
