package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/crypto"
	"github.com/opd-ai/securenotes/ledger"
)

// LocalWallet is an in-process Wallet holding one NaCl key pair per
// account. It reproduces the browser wallet's encryption surface: keys
// are exported as base64 and Decrypt accepts the 0x-hex envelope
// transport string.
//
// DenyNext injects user denials to exercise the rejection paths.
type LocalWallet struct {
	mu       sync.Mutex
	accounts []ledger.Address
	keys     map[ledger.Address]*crypto.KeyPair
	denyNext map[string]bool
	callback AccountsChangedCallback
}

// NewLocalWallet creates a wallet managing no accounts.
func NewLocalWallet() *LocalWallet {
	return &LocalWallet{
		keys:     make(map[ledger.Address]*crypto.KeyPair),
		denyNext: make(map[string]bool),
	}
}

// CreateAccount mints a new account with a fresh key pair and returns its
// address. The first account created becomes the primary.
func (w *LocalWallet) CreateAccount() (ledger.Address, error) {
	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return "", fmt.Errorf("failed to generate account keys: %w", err)
	}

	var raw [20]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("failed to generate account address: %w", err)
	}
	account := ledger.Address("0x" + hex.EncodeToString(raw[:]))

	w.mu.Lock()
	w.accounts = append(w.accounts, account)
	w.keys[account.Normalized()] = keyPair
	w.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CreateAccount",
		"package":  "wallet",
		"account":  account,
	}).Info("Created local wallet account")

	return account, nil
}

// DenyNext arranges for the next call to the named Wallet method to fail
// with ErrDenied, simulating the user declining the prompt.
func (w *LocalWallet) DenyNext(method string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.denyNext[method] = true
}

// SwitchAccount moves account to the front of the account list and fires
// the accounts-changed callback, simulating the user switching accounts.
func (w *LocalWallet) SwitchAccount(account ledger.Address) error {
	w.mu.Lock()
	idx := -1
	for i, a := range w.accounts {
		if a.Equal(account) {
			idx = i
			break
		}
	}
	if idx < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	w.accounts[0], w.accounts[idx] = w.accounts[idx], w.accounts[0]
	accounts := make([]ledger.Address, len(w.accounts))
	copy(accounts, w.accounts)
	callback := w.callback
	w.mu.Unlock()

	if callback != nil {
		callback(accounts)
	}
	return nil
}

// takeDenial consumes and reports any injected denial for method.
// Caller must hold w.mu.
func (w *LocalWallet) takeDenial(method string) bool {
	if w.denyNext[method] {
		delete(w.denyNext, method)
		return true
	}
	return false
}

// RequestAccounts implements Wallet.RequestAccounts.
func (w *LocalWallet) RequestAccounts(ctx context.Context) ([]ledger.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.takeDenial("RequestAccounts") {
		return nil, ErrDenied
	}
	if len(w.accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet has no accounts", ErrUnknownAccount)
	}

	accounts := make([]ledger.Address, len(w.accounts))
	copy(accounts, w.accounts)
	return accounts, nil
}

// EncryptionPublicKey implements Wallet.EncryptionPublicKey.
func (w *LocalWallet) EncryptionPublicKey(ctx context.Context, account ledger.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.takeDenial("EncryptionPublicKey") {
		return "", ErrDenied
	}

	keyPair, ok := w.keys[account.Normalized()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	return crypto.EncodePublicKey(keyPair.Public), nil
}

// Decrypt implements Wallet.Decrypt.
func (w *LocalWallet) Decrypt(ctx context.Context, payload string, account ledger.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	keyPair, ok := w.keys[account.Normalized()]
	denied := w.takeDenial("Decrypt")
	w.mu.Unlock()

	if denied {
		return "", ErrDenied
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	env, err := crypto.ParseEnvelope(payload)
	if err != nil {
		return "", err
	}

	plaintext, err := crypto.Open(env, keyPair.Private)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt envelope: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "Decrypt",
		"package":        "wallet",
		"account":        account,
		"plaintext_size": len(plaintext),
	}).Debug("Decrypted envelope")

	return string(plaintext), nil
}

// OnAccountsChanged implements Wallet.OnAccountsChanged.
func (w *LocalWallet) OnAccountsChanged(callback AccountsChangedCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}
