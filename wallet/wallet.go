// Package wallet defines the client's view of the wallet/signing
// collaborator: account access, encryption-key export, and decryption of
// envelope payloads with keys the client itself never holds.
//
// LocalWallet is an in-process implementation holding NaCl keys, used by
// tests and local development in place of a browser wallet.
package wallet

import (
	"context"
	"errors"

	"github.com/opd-ai/securenotes/ledger"
)

// Sentinel errors reported by wallet collaborators.
var (
	// ErrDenied indicates the user declined a wallet prompt (account
	// access, key export, or decryption).
	ErrDenied = errors.New("wallet request denied")

	// ErrUnknownAccount indicates the wallet does not manage the
	// requested account.
	ErrUnknownAccount = errors.New("unknown account")
)

// AccountsChangedCallback is invoked when the wallet's active account set
// changes. Sessions treat any change as invalidating.
type AccountsChangedCallback func(accounts []ledger.Address)

// Wallet is the signing collaborator surface the client consumes. Every
// method may suspend indefinitely on user interaction.
type Wallet interface {
	// RequestAccounts prompts for account access and returns the granted
	// accounts, primary first.
	RequestAccounts(ctx context.Context) ([]ledger.Address, error)

	// EncryptionPublicKey exports the account's encryption public key as
	// base64, the eth_getEncryptionPublicKey equivalent.
	EncryptionPublicKey(ctx context.Context, account ledger.Address) (string, error)

	// Decrypt unwraps a transport-encoded envelope with the account's
	// private key and returns the plaintext, the eth_decrypt equivalent.
	Decrypt(ctx context.Context, payload string, account ledger.Address) (string, error)

	// OnAccountsChanged registers the callback fired on account changes.
	// Only one callback is active; registering replaces the previous one.
	OnAccountsChanged(callback AccountsChangedCallback)
}
