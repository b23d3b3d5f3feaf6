package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// CipherID identifies the only cipher this build understands. Envelopes
// carrying another id are rejected, not silently re-interpreted.
const CipherID = "aes256gcm"

// KeySize is the raw key length in bytes.
const KeySize = 32

// AESGCM is the default Encryptor: AES-256 in GCM mode with a random
// nonce prepended to the sealed payload.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds an Encryptor from raw key material.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initialise cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initialise GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Encrypt seals plaintext into an envelope.
func (a *AESGCM) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	payload := base64.RawURLEncoding.EncodeToString(sealed)
	return wrapEnvelope(CipherID, payload), nil
}

// Decrypt opens an envelope. Cipher-id mismatches, malformed envelopes
// and wrong keys are all DecryptionErrors.
func (a *AESGCM) Decrypt(envelope string) (string, error) {
	cipherID, payload, err := splitEnvelope(envelope)
	if err != nil {
		return "", err
	}
	if cipherID != CipherID {
		return "", &DecryptionError{
			Envelope: envelope,
			Reason:   fmt.Sprintf("cipher id %q not supported (expected %q)", cipherID, CipherID),
		}
	}
	sealed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", &DecryptionError{Envelope: envelope, Reason: "payload is not valid base64"}
	}
	if len(sealed) < a.aead.NonceSize() {
		return "", &DecryptionError{Envelope: envelope, Reason: "payload too short"}
	}
	nonce, ciphertext := sealed[:a.aead.NonceSize()], sealed[a.aead.NonceSize():]
	plain, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &DecryptionError{Envelope: envelope, Reason: "wrong key or corrupted payload"}
	}
	return string(plain), nil
}

// GenerateKey produces fresh random key material.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// WriteKeyFile stores key material hex-encoded, readable only by the
// owner.
func WriteKeyFile(path string, key []byte) error {
	return os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600)
}

// LoadKeyFile reads key material written by WriteKeyFile.
func LoadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file %s is not valid hex: %w", path, err)
	}
	return key, nil
}

// OpenEncryptor loads the key at path and returns the default
// Encryptor bound to it.
func OpenEncryptor(path string) (Encryptor, error) {
	key, err := LoadKeyFile(path)
	if err != nil {
		return nil, err
	}
	return NewAESGCM(key)
}
