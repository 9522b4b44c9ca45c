package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Crypter encrypts and decrypts stored integration credentials with AES-GCM.
// Keys are derived per workspace from the master key so a leaked ciphertext
// plus IV from one tenant is useless against another.
type Crypter struct {
	masterKey []byte
}

func NewCrypter(masterKey string) *Crypter {
	return &Crypter{masterKey: []byte(masterKey)}
}

func (c *Crypter) keyFor(workspaceID string) []byte {
	sum := sha256.Sum256(append(append([]byte{}, c.masterKey...), []byte(":"+workspaceID)...))
	return sum[:]
}

// Encrypt returns base64 ciphertext and base64 IV for a plaintext credential.
func (c *Crypter) Encrypt(workspaceID, plainText string) (cipherText, iv string, err error) {
	block, err := aes.NewCipher(c.keyFor(workspaceID))
	if err != nil {
		return "", "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt reverses Encrypt. The IV is stored alongside the ciphertext rather
// than prepended to it.
func (c *Crypter) Decrypt(workspaceID, cipherText, iv string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("iv is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(c.keyFor(workspaceID))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("iv has wrong length %d", len(nonce))
	}

	plain, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}
