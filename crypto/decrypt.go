package crypto

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
)

// Open decrypts an envelope using the recipient's secret key.
//
// Production clients never hold the recipient's secret key; decryption is
// delegated to the wallet collaborator. Open exists for wallet
// implementations that run in-process (see the wallet package) and for
// round-trip verification.
func Open(env *Envelope, recipientSK [KeySize]byte) ([]byte, error) {
	if env == nil {
		return nil, errors.New("nil envelope")
	}
	if err := env.validate(); err != nil {
		return nil, err
	}

	plaintext, ok := box.Open(nil, env.Ciphertext, (*[NonceSize]byte)(&env.Nonce), (*[KeySize]byte)(&env.EphemPublicKey), (*[KeySize]byte)(&recipientSK))
	if !ok {
		return nil, errors.New("decryption failed")
	}

	return plaintext, nil
}
