package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// Snapshot blobs are framed as salt(16) || nonce(12) || ciphertext.
// The key is derived from the password with scrypt.
const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// Seal encrypts the plaintext under a key derived from the password.
// Every call uses a fresh salt and nonce.
func Seal(password string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Unseal decrypts a blob produced by Seal. A wrong password or a
// tampered blob fails with a DecryptError.
func Unseal(password string, blob []byte) ([]byte, error) {
	if len(blob) < saltSize+nonceSize {
		return nil, &DecryptError{Reason: "blob too short"}
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &DecryptError{Reason: "wrong password or corrupted data"}
	}
	return plaintext, nil
}

// DecryptError reports a blob that could not be opened.
type DecryptError struct {
	Reason string
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("cannot decrypt snapshot: %s", e.Reason)
}
