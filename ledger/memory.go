package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MemoryLedger implements the contract semantics in process. It stands in
// for the deployed contract in tests and local development: icons, gifts,
// notes, and registered keys live in memory, and every write goes through
// a PendingTx handle like a real submission would.
//
// Confirmation is immediate. FailNext injects failures to exercise the
// rejection paths.
type MemoryLedger struct {
	mu       sync.Mutex
	icons    []IconListing
	gifts    map[Address][]ReceivedGift
	notes    []NoteRecord
	keys     map[Address]string
	failNext map[string]error
	now      func() time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		gifts:    make(map[Address][]ReceivedGift),
		keys:     make(map[Address]string),
		failNext: make(map[string]error),
		now:      time.Now,
	}
}

// SetTimeSource overrides the clock used for note timestamps.
func (m *MemoryLedger) SetTimeSource(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailNext arranges for the next call to the named Ledger method to fail
// with err. Read methods return err directly; write methods return a
// handle whose Wait reports err, with no state applied.
func (m *MemoryLedger) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[method] = err
}

// Connect returns a Ledger handle bound to account, analogous to
// attaching a contract instance to a signer.
func (m *MemoryLedger) Connect(account Address) Ledger {
	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"package":  "ledger",
		"account":  account,
	}).Debug("Binding memory ledger handle")

	return &boundLedger{chain: m, account: account}
}

// takeFailure consumes and returns any injected failure for method.
// Caller must hold m.mu.
func (m *MemoryLedger) takeFailure(method string) error {
	if err, ok := m.failNext[method]; ok {
		delete(m.failNext, method)
		return err
	}
	return nil
}

// memTx is a confirmed-or-rejected transaction handle. The outcome is
// fixed at submission; Wait only honors context cancellation.
type memTx struct {
	hash string
	err  error
}

func (t *memTx) Hash() string { return t.hash }

func (t *memTx) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.err
}

// newTx mints a handle with a simulator transaction hash.
func newTx(err error) *memTx {
	return &memTx{hash: uuid.NewString(), err: err}
}

// boundLedger is a MemoryLedger handle acting as one account.
type boundLedger struct {
	chain   *MemoryLedger
	account Address
}

func (b *boundLedger) IconCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("IconCount"); err != nil {
		return 0, err
	}
	return uint64(len(b.chain.icons)), nil
}

func (b *boundLedger) Icon(ctx context.Context, id uint64) (IconListing, error) {
	if err := ctx.Err(); err != nil {
		return IconListing{}, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("Icon"); err != nil {
		return IconListing{}, err
	}
	if id >= uint64(len(b.chain.icons)) {
		return IconListing{}, fmt.Errorf("icon %d does not exist", id)
	}
	listing := b.chain.icons[id]
	listing.Price = new(big.Int).Set(listing.Price)
	return listing, nil
}

func (b *boundLedger) AddIcon(ctx context.Context, iconType IconType, price *big.Int) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("AddIcon"); err != nil {
		return newTx(err), nil
	}
	if price == nil || price.Sign() <= 0 {
		return newTx(errors.New("price must be positive")), nil
	}

	b.chain.icons = append(b.chain.icons, IconListing{
		ID:        uint64(len(b.chain.icons)),
		Type:      iconType,
		Price:     new(big.Int).Set(price),
		Available: true,
	})
	return newTx(nil), nil
}

func (b *boundLedger) BuyAndSendIcon(ctx context.Context, id uint64, recipient Address, payment *big.Int) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("BuyAndSendIcon"); err != nil {
		return newTx(err), nil
	}
	if id >= uint64(len(b.chain.icons)) {
		return newTx(fmt.Errorf("icon %d does not exist", id)), nil
	}
	listing := b.chain.icons[id]
	if !listing.Available {
		return newTx(fmt.Errorf("icon %d is not available", id)), nil
	}
	if !recipient.Valid() {
		return newTx(fmt.Errorf("recipient %q is not an address", recipient)), nil
	}
	if payment == nil || payment.Cmp(listing.Price) < 0 {
		return newTx(errors.New("insufficient payment")), nil
	}

	key := recipient.Normalized()
	b.chain.gifts[key] = append(b.chain.gifts[key], ReceivedGift{
		IconID: id,
		Sender: b.account,
	})
	return newTx(nil), nil
}

func (b *boundLedger) ReceivedIcons(ctx context.Context) ([]ReceivedGift, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("ReceivedIcons"); err != nil {
		return nil, err
	}
	gifts := b.chain.gifts[b.account.Normalized()]
	out := make([]ReceivedGift, len(gifts))
	copy(out, gifts)
	return out, nil
}

func (b *boundLedger) NoteCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("NoteCount"); err != nil {
		return 0, err
	}
	return uint64(len(b.chain.notes)), nil
}

func (b *boundLedger) Note(ctx context.Context, id uint64) (NoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return NoteRecord{}, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("Note"); err != nil {
		return NoteRecord{}, err
	}
	if id >= uint64(len(b.chain.notes)) {
		return NoteRecord{}, fmt.Errorf("note %d does not exist", id)
	}
	return b.chain.notes[id], nil
}

func (b *boundLedger) SendEncryptedNote(ctx context.Context, recipient Address, payload string) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("SendEncryptedNote"); err != nil {
		return newTx(err), nil
	}
	if !recipient.Valid() {
		return newTx(fmt.Errorf("recipient %q is not an address", recipient)), nil
	}
	if payload == "" {
		return newTx(errors.New("empty payload")), nil
	}

	note := NoteRecord{
		ID:        uint64(len(b.chain.notes)),
		Sender:    b.account,
		Recipient: recipient,
		Payload:   payload,
		Timestamp: b.chain.now(),
	}
	b.chain.notes = append(b.chain.notes, note)

	logrus.WithFields(logrus.Fields{
		"function":  "SendEncryptedNote",
		"package":   "ledger",
		"note_id":   note.ID,
		"recipient": recipient,
	}).Debug("Note stored")

	return newTx(nil), nil
}

func (b *boundLedger) ReadEncryptedNote(ctx context.Context, id uint64) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("ReadEncryptedNote"); err != nil {
		return newTx(err), nil
	}
	if id >= uint64(len(b.chain.notes)) {
		return newTx(fmt.Errorf("note %d does not exist", id)), nil
	}
	note := &b.chain.notes[id]
	if !note.Recipient.Equal(b.account) {
		return newTx(errors.New("only the recipient can read a note")), nil
	}
	if note.IsDeleted {
		return newTx(errors.New("note is deleted")), nil
	}

	// Marking an already-read note again is a no-op so a client can retry
	// a confirmation that failed after decryption.
	note.IsRead = true
	return newTx(nil), nil
}

func (b *boundLedger) DeleteNote(ctx context.Context, id uint64) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("DeleteNote"); err != nil {
		return newTx(err), nil
	}
	if id >= uint64(len(b.chain.notes)) {
		return newTx(fmt.Errorf("note %d does not exist", id)), nil
	}
	note := &b.chain.notes[id]
	if !note.Recipient.Equal(b.account) {
		return newTx(errors.New("only the recipient can delete a note")), nil
	}

	// Deleted is terminal; deleting again changes nothing.
	note.IsDeleted = true
	return newTx(nil), nil
}

func (b *boundLedger) EncryptionKey(ctx context.Context, owner Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("EncryptionKey"); err != nil {
		return "", err
	}
	return b.chain.keys[owner.Normalized()], nil
}

func (b *boundLedger) RegisterPublicKey(ctx context.Context, key string) (PendingTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.chain.mu.Lock()
	defer b.chain.mu.Unlock()
	if err := b.chain.takeFailure("RegisterPublicKey"); err != nil {
		return newTx(err), nil
	}
	if key == "" {
		return newTx(errors.New("empty key")), nil
	}

	// Last write wins, mirroring a contract without an overwrite guard.
	// The registry client refuses re-registration before it gets here.
	b.chain.keys[b.account.Normalized()] = key
	return newTx(nil), nil
}
