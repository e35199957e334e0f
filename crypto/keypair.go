// Package crypto implements the envelope encryption used for secure notes.
//
// This package handles key generation, sealing plaintext into the
// x25519-xsalsa20-poly1305 envelope the wallet collaborator can decrypt,
// and the transport codec that carries envelopes through the ledger.
//
// Example:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	env, err := crypto.Seal([]byte("Happy Birthday!"), keys.Public)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	payload, err := env.Serialize()
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	// KeySize is the NaCl box key length in bytes.
	KeySize = 32

	// NonceSize is the NaCl box nonce length in bytes.
	NonceSize = 24
)

// KeyPair represents a NaCl crypto_box key pair.
type KeyPair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// GenerateKeyPair creates a new random NaCl key pair.
func GenerateKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Public:  *publicKey,
		Private: *privateKey,
	}, nil
}

// FromSecretKey creates a key pair from an existing private key.
func FromSecretKey(secretKey [KeySize]byte) (*KeyPair, error) {
	if isZeroKey(secretKey) {
		return nil, errors.New("invalid secret key: all zeros")
	}

	publicKey, err := curve25519.X25519(secretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	keyPair := &KeyPair{Private: secretKey}
	copy(keyPair.Public[:], publicKey)
	return keyPair, nil
}

// EncodePublicKey encodes a raw public key as base64, the format the
// wallet exports and the ledger registry stores.
func EncodePublicKey(publicKey [KeySize]byte) string {
	return base64.StdEncoding.EncodeToString(publicKey[:])
}

// DecodePublicKey decodes a base64 public key as stored in the ledger's
// key registry. It fails with ErrInvalidKeyMaterial if the input is not
// base64 or does not decode to exactly KeySize bytes.
func DecodePublicKey(encoded string) ([KeySize]byte, error) {
	var publicKey [KeySize]byte

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return publicKey, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	if len(raw) != KeySize {
		return publicKey, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyMaterial, len(raw), KeySize)
	}

	copy(publicKey[:], raw)
	if isZeroKey(publicKey) {
		return publicKey, fmt.Errorf("%w: all zeros", ErrInvalidKeyMaterial)
	}
	return publicKey, nil
}

// isZeroKey checks if a key consists of all zeros.
func isZeroKey(key [KeySize]byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}
