package ledger

import (
	"context"
	"errors"
	"math/big"
)

// ErrUnavailable indicates the ledger cannot serve read queries, for
// example because no contract is deployed at the expected address.
// Callers degrade the affected view rather than failing the session.
var ErrUnavailable = errors.New("ledger unavailable")

// PendingTx is the handle returned by every state-changing call. The
// submission is not retractable; Wait blocks until the ledger confirms
// or rejects it. Wait may be called more than once and returns the same
// outcome.
type PendingTx interface {
	// Hash identifies the submitted transaction.
	Hash() string

	// Wait blocks until confirmation. A nil return means the mutation is
	// durable and visible to subsequent reads; an error means the ledger
	// rejected it and no state changed.
	Wait(ctx context.Context) error
}

// Ledger is the contract surface the client consumes, bound to one
// caller account.
type Ledger interface {
	// IconCount returns the number of catalog entries ever listed.
	IconCount(ctx context.Context) (uint64, error)

	// Icon returns the catalog entry at id.
	Icon(ctx context.Context, id uint64) (IconListing, error)

	// AddIcon lists a new icon for sale.
	AddIcon(ctx context.Context, iconType IconType, price *big.Int) (PendingTx, error)

	// BuyAndSendIcon purchases the listing at id as a gift for recipient,
	// attaching payment.
	BuyAndSendIcon(ctx context.Context, id uint64, recipient Address, payment *big.Int) (PendingTx, error)

	// ReceivedIcons returns the gifts addressed to the bound account.
	ReceivedIcons(ctx context.Context) ([]ReceivedGift, error)

	// NoteCount returns the number of notes ever stored.
	NoteCount(ctx context.Context) (uint64, error)

	// Note returns the note at id.
	Note(ctx context.Context, id uint64) (NoteRecord, error)

	// SendEncryptedNote stores a new note from the bound account.
	SendEncryptedNote(ctx context.Context, recipient Address, payload string) (PendingTx, error)

	// ReadEncryptedNote flags the note at id as read. Only the note's
	// recipient may call it.
	ReadEncryptedNote(ctx context.Context, id uint64) (PendingTx, error)

	// DeleteNote flags the note at id as deleted. Only the note's
	// recipient may call it.
	DeleteNote(ctx context.Context, id uint64) (PendingTx, error)

	// EncryptionKey returns owner's registered public key, or the empty
	// string if owner never registered one.
	EncryptionKey(ctx context.Context, owner Address) (string, error)

	// RegisterPublicKey stores the bound account's public key.
	RegisterPublicKey(ctx context.Context, key string) (PendingTx, error)
}
