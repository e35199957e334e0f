// Package registry implements the key registry client: checking and
// writing registered encryption public keys through the ledger.
//
// A registered key is immutable from this client's point of view. There
// is no rotation operation; Register refuses to overwrite.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/crypto"
	"github.com/opd-ai/securenotes/ledger"
	"github.com/opd-ai/securenotes/wallet"
)

// Sentinel errors for registration outcomes.
var (
	// ErrAlreadyRegistered indicates the account already has a key in the
	// registry and Register will not overwrite it.
	ErrAlreadyRegistered = errors.New("public key already registered")

	// ErrRegistrationRejected indicates the wallet denied the key export.
	ErrRegistrationRejected = errors.New("registration rejected")

	// ErrRegistrationFailed indicates the ledger did not confirm the
	// registration transaction.
	ErrRegistrationFailed = errors.New("registration failed")
)

// Client checks and writes registered public keys.
type Client struct {
	ledger ledger.Ledger
	wallet wallet.Wallet
}

// NewClient creates a registry client over the given collaborators. The
// ledger handle must be bound to the account that will register.
func NewClient(l ledger.Ledger, w wallet.Wallet) *Client {
	return &Client{ledger: l, wallet: w}
}

// RegisteredKey returns owner's registered key material, or the empty
// string if owner never registered.
func (c *Client) RegisteredKey(ctx context.Context, owner ledger.Address) (string, error) {
	key, err := c.ledger.EncryptionKey(ctx, owner)
	if err != nil {
		return "", fmt.Errorf("failed to query registered key: %w", err)
	}
	return key, nil
}

// IsRegistered reports whether owner has registered key material.
func (c *Client) IsRegistered(ctx context.Context, owner ledger.Address) (bool, error) {
	key, err := c.RegisteredKey(ctx, owner)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// RecipientKey returns owner's registered key decoded to raw key
// material, ready for sealing. The empty string (absent registration)
// and undecodable material both come back as errors.
func (c *Client) RecipientKey(ctx context.Context, owner ledger.Address) ([crypto.KeySize]byte, error) {
	var publicKey [crypto.KeySize]byte

	encoded, err := c.RegisteredKey(ctx, owner)
	if err != nil {
		return publicKey, err
	}
	if encoded == "" {
		return publicKey, fmt.Errorf("%w: no key registered for %s", crypto.ErrInvalidKeyMaterial, owner)
	}
	return crypto.DecodePublicKey(encoded)
}

// Register exports the wallet's encryption public key for account and
// submits it to the ledger, blocking until confirmation. It fails with
// ErrAlreadyRegistered if account has a key, ErrRegistrationRejected if
// the wallet denies the export, and ErrRegistrationFailed if the ledger
// rejects the transaction.
func (c *Client) Register(ctx context.Context, account ledger.Address) error {
	registered, err := c.IsRegistered(ctx, account)
	if err != nil {
		return err
	}
	if registered {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, account)
	}

	key, err := c.wallet.EncryptionPublicKey(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationRejected, err)
	}
	if _, err := crypto.DecodePublicKey(key); err != nil {
		return fmt.Errorf("wallet exported unusable key material: %w", err)
	}

	tx, err := c.ledger.RegisterPublicKey(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Register",
		"package":  "registry",
		"account":  account,
		"tx":       tx.Hash(),
	}).Info("Submitted key registration")

	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Register",
		"package":  "registry",
		"account":  account,
	}).Info("Key registration confirmed")

	return nil
}
