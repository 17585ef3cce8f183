package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"telereach/config"
)

// Session blobs are sealed with AES-256-GCM. The cipher key is the SHA-256 of
// ENCRYPTION_KEY, the nonce is prepended to the ciphertext and the whole
// envelope is base64 encoded.

var ErrCiphertextInvalid = errors.New("ciphertext invalid or tampered")

func encryptionKey() []byte {
	sum := sha256.Sum256([]byte(config.AppConfig.EncryptionKey))
	return sum[:]
}

func Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(encryptionKey())
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

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A wrong key or a corrupted envelope returns
// ErrCiphertextInvalid: callers must treat that session as unrecoverable, not
// as absent.
func Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertextInvalid
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(decoded) < gcm.NonceSize() {
		return "", ErrCiphertextInvalid
	}
	nonce, sealed := decoded[:gcm.NonceSize()], decoded[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plain), nil
}
