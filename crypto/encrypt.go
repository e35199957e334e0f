package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/box"
)

// Nonce is a 24-byte value used for encryption. Each sealed envelope
// consumes a fresh nonce; reuse with the same key pair breaks
// confidentiality.
type Nonce [NonceSize]byte

// MaxPlaintextSize bounds sealed messages (1MB to prevent excessive
// memory usage).
const MaxPlaintextSize = 1024 * 1024

// GenerateNonce creates a cryptographically secure random nonce.
func GenerateNonce() (Nonce, error) {
	var nonce Nonce
	_, err := rand.Read(nonce[:])
	if err != nil {
		return Nonce{}, err
	}
	return nonce, nil
}

// Seal encrypts plaintext for the holder of recipientPK using
// authenticated public-key encryption. A fresh ephemeral key pair and a
// fresh nonce are generated per call and never cached or derived, so two
// envelopes for the same recipient never share either.
func Seal(plaintext []byte, recipientPK [KeySize]byte) (*Envelope, error) {
	if len(plaintext) == 0 {
		return nil, errors.New("empty plaintext")
	}
	if len(plaintext) > MaxPlaintextSize {
		return nil, errors.New("plaintext too large")
	}
	if isZeroKey(recipientPK) {
		return nil, fmt.Errorf("%w: all zeros", ErrInvalidKeyMaterial)
	}

	ephemeral, err := GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key pair: %w", err)
	}

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := box.Seal(nil, plaintext, (*[NonceSize]byte)(&nonce), (*[KeySize]byte)(&recipientPK), (*[KeySize]byte)(&ephemeral.Private))

	logrus.WithFields(logrus.Fields{
		"function":        "Seal",
		"package":         "crypto",
		"plaintext_size":  len(plaintext),
		"ciphertext_size": len(sealed),
	}).Debug("Sealed envelope")

	return &Envelope{
		Version:        EnvelopeVersion,
		Nonce:          nonce,
		EphemPublicKey: ephemeral.Public,
		Ciphertext:     sealed,
	}, nil
}
