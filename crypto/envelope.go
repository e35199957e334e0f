package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EnvelopeVersion is the fixed scheme tag carried by every envelope. The
// wallet collaborator's decrypt call only accepts this algorithm family.
const EnvelopeVersion = "x25519-xsalsa20-poly1305"

// Envelope is the self-describing structure carrying an encrypted message
// plus the metadata needed to decrypt it.
type Envelope struct {
	Version        string
	Nonce          Nonce
	EphemPublicKey [KeySize]byte
	Ciphertext     []byte
}

// wireEnvelope is the JSON form the wallet's decrypt contract expects.
// Field order matters for nothing but readability; the four keys do.
type wireEnvelope struct {
	Version        string `json:"version"`
	Nonce          string `json:"nonce"`
	EphemPublicKey string `json:"ephemPublicKey"`
	Ciphertext     string `json:"ciphertext"`
}

// Serialize encodes the envelope to its transport form: a JSON object with
// exactly the four wire keys, hex-encoded into a 0x-prefixed string. The
// result parses back byte-identically via ParseEnvelope.
func (e *Envelope) Serialize() (string, error) {
	if err := e.validate(); err != nil {
		return "", err
	}

	wire := wireEnvelope{
		Version:        e.Version,
		Nonce:          base64.StdEncoding.EncodeToString(e.Nonce[:]),
		EphemPublicKey: base64.StdEncoding.EncodeToString(e.EphemPublicKey[:]),
		Ciphertext:     base64.StdEncoding.EncodeToString(e.Ciphertext),
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return "0x" + hex.EncodeToString(data), nil
}

// ParseEnvelope decodes a transport payload back into an Envelope. Any
// structural deviation (bad hex, bad JSON, wrong key set, wrong nonce
// length, empty key or ciphertext fields) fails with ErrMalformedEnvelope.
func ParseEnvelope(payload string) (*Envelope, error) {
	if !strings.HasPrefix(payload, "0x") {
		return nil, fmt.Errorf("%w: missing 0x prefix", ErrMalformedEnvelope)
	}

	raw, err := hex.DecodeString(payload[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformedEnvelope)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var wire wireEnvelope
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after envelope", ErrMalformedEnvelope)
	}
	if wire.Version == "" || wire.Nonce == "" || wire.EphemPublicKey == "" || wire.Ciphertext == "" {
		return nil, fmt.Errorf("%w: missing required field", ErrMalformedEnvelope)
	}

	nonceRaw, err := base64.StdEncoding.DecodeString(wire.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformedEnvelope, err)
	}
	if len(nonceRaw) != NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes, want %d", ErrMalformedEnvelope, len(nonceRaw), NonceSize)
	}

	ephemRaw, err := base64.StdEncoding.DecodeString(wire.EphemPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemPublicKey: %v", ErrMalformedEnvelope, err)
	}
	if len(ephemRaw) != KeySize {
		return nil, fmt.Errorf("%w: ephemPublicKey is %d bytes, want %d", ErrMalformedEnvelope, len(ephemRaw), KeySize)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedEnvelope, err)
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrMalformedEnvelope)
	}

	env := &Envelope{
		Version:    wire.Version,
		Ciphertext: ciphertext,
	}
	copy(env.Nonce[:], nonceRaw)
	copy(env.EphemPublicKey[:], ephemRaw)

	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// validate checks structural invariants shared by the seal, open, and
// codec paths.
func (e *Envelope) validate() error {
	if e.Version != EnvelopeVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedEnvelope, e.Version)
	}
	if len(e.Ciphertext) == 0 {
		return fmt.Errorf("%w: empty ciphertext", ErrMalformedEnvelope)
	}
	if isZeroKey(e.EphemPublicKey) {
		return fmt.Errorf("%w: zero ephemeral public key", ErrMalformedEnvelope)
	}
	return nil
}
