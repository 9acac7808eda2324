// Package vault encrypts connection secrets that are persisted on disk.
//
// The key is 32 random bytes kept in a local file with owner-only
// permissions. It is created on first use and cached in memory afterwards.
// Losing the file invalidates every ciphertext produced with it; callers are
// expected to ask for the credential again.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/filex"
)

const keySize = 32

// Vault performs AES-256-GCM encryption with a file-backed key.
type Vault struct {
	keyPath string

	mu  sync.Mutex
	key []byte
}

// New returns a vault whose key lives at keyPath. No I/O happens until the
// first Encrypt or Decrypt.
func New(keyPath string) *Vault {
	return &Vault{keyPath: keyPath}
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(aead.NonceSize())
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure (bad encoding,
// truncation, tampering, a different key) is reported as common.ErrDecryption.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	return string(plaintext), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	key, err := v.loadKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadKey returns the cached key, reading or generating the key file once.
// A file of the wrong size is replaced.
func (v *Vault) loadKey() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key != nil {
		return v.key, nil
	}

	data, ok, err := filex.ReadOptional(v.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	if ok && len(data) == keySize {
		v.key = data
		return v.key, nil
	}

	key := common.GenerateRandByteArray(keySize)
	if err := filex.WritePrivate(v.keyPath, key); err != nil {
		return nil, fmt.Errorf("write key: %w", err)
	}

	v.key = key
	return v.key, nil
}
