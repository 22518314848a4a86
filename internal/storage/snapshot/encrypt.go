package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort      = errors.New("snapshot: encryption key too short (minimum 16 characters)")
	ErrDecryptionFailed = errors.New("snapshot: decryption failed - wrong key or corrupted data")
)

const (
	// MinKeyLength is the minimum length of storage.encryption_key.
	MinKeyLength = 16

	// SaltLength is the length of the per-file random salt.
	SaltLength = 16

	// Argon2id parameters (RFC 9106 second recommended option).
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	hkdfInfo = "krishnadb snapshot data v1"
)

// ValidateKey checks the configured encryption key. An empty key means
// encryption is off and is valid.
func ValidateKey(key []byte) error {
	if len(key) > 0 && len(key) < MinKeyLength {
		return ErrKeyTooShort
	}
	return nil
}

// DeriveKey stretches the configured key with Argon2id and the file's
// salt, then derives the data key from it with HKDF-SHA256.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("snapshot: salt must be %d bytes", SaltLength)
	}

	master := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, adaptive.KeySize)
	defer ZeroKey(master)

	reader := hkdf.New(sha256.New, master, salt, []byte(hkdfInfo))
	key := make([]byte, adaptive.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive key: %w", err)
	}
	return key, nil
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("snapshot: generate salt: %w", err)
	}
	return salt, nil
}

// ZeroKey overwrites key material in place.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}

func seal(passphrase []byte, cipherType adaptive.CipherType, salt, plaintext, aad []byte) ([]byte, error) {
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer ZeroKey(key)

	c, err := adaptive.NewWithType(key, cipherType)
	if err != nil {
		return nil, err
	}
	return c.Encrypt(plaintext, aad)
}

func open(passphrase []byte, cipherType adaptive.CipherType, salt, ciphertext, aad []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: snapshot is encrypted and no key is configured", ErrDecryptionFailed)
	}
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	defer ZeroKey(key)

	c, err := adaptive.NewWithType(key, cipherType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	plain, err := c.Decrypt(ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}
