package crypto

import "errors"

// Sentinel errors for envelope construction and parsing.
// These errors enable reliable classification using errors.Is().
var (
	// ErrInvalidKeyMaterial indicates a recipient key that is not a
	// well-formed NaCl public key of the expected length.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrMalformedEnvelope indicates a transport payload that does not
	// decode to a structurally valid envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
