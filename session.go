package securenotes

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/crypto"
	"github.com/opd-ai/securenotes/icons"
	"github.com/opd-ai/securenotes/ledger"
	"github.com/opd-ai/securenotes/notes"
	"github.com/opd-ai/securenotes/registry"
	"github.com/opd-ai/securenotes/wallet"
)

// SessionState represents the session lifecycle state driving which
// actions are available. Which of RegisterKey or SendNote a UI offers is
// selected by this state, never by swapping handlers around.
type SessionState uint8

const (
	// StateDisconnected means no account is bound.
	StateDisconnected SessionState = iota
	// StateUnregistered means an account is bound but has no registered
	// encryption key; it can browse and buy but not send or read notes.
	StateUnregistered
	// StateReady means the bound account registered its key.
	StateReady
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateUnregistered:
		return "unregistered"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// StateCallback is invoked when the session state changes.
type StateCallback func(state SessionState)

// LedgerConnector binds ledger handles to accounts. MemoryLedger
// implements it; a production deployment provides one backed by the
// deployed contract and the wallet's signer.
type LedgerConnector interface {
	Connect(account ledger.Address) ledger.Ledger
}

// Session orchestrates the wallet and ledger collaborators for one
// connected account. It is constructed on connect and invalidated on
// disconnect or account change, never silently rebound.
type Session struct {
	mu        sync.Mutex
	options   *Options
	connector LedgerConnector
	wallet    wallet.Wallet

	// Bound per connection, nil/zero while disconnected.
	account  ledger.Address
	ledger   ledger.Ledger
	registry *registry.Client
	notes    *notes.Store
	icons    *icons.Cache

	state         SessionState
	stateCallback StateCallback
}

// NewSession creates a disconnected session.
func NewSession(connector LedgerConnector, w wallet.Wallet, options *Options) *Session {
	if options == nil {
		options = NewOptions()
	}

	s := &Session{
		options:   options,
		connector: connector,
		wallet:    w,
		state:     StateDisconnected,
	}

	// An account change invalidates the session; the user reconnects
	// explicitly rather than the session rebinding under them.
	w.OnAccountsChanged(func(accounts []ledger.Address) {
		s.mu.Lock()
		current := s.account
		s.mu.Unlock()
		if current == "" {
			return
		}
		if len(accounts) == 0 || !accounts[0].Equal(current) {
			logrus.WithFields(logrus.Fields{
				"function": "OnAccountsChanged",
				"package":  "securenotes",
				"account":  current,
			}).Info("Wallet account changed, invalidating session")
			s.Disconnect()
		}
	})

	return s
}

// Connect requests account access from the wallet, binds a ledger handle
// to the primary account, and determines the registration state. With
// RefreshOnConnect set, it also performs the initial data load; refresh
// failures degrade the affected view and do not fail Connect.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.account != "" {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	accounts, err := s.wallet.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect wallet: %w", err)
	}
	if len(accounts) == 0 {
		return fmt.Errorf("failed to connect wallet: %w", wallet.ErrUnknownAccount)
	}
	account := accounts[0]

	handle := s.connector.Connect(account)

	s.mu.Lock()
	s.account = account
	s.ledger = handle
	s.registry = registry.NewClient(handle, s.wallet)
	s.notes = notes.NewStore(handle, account)
	s.icons = icons.NewCache(handle)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"package":  "securenotes",
		"account":  account,
	}).Info("Session connected")

	if s.options.SeedCatalog {
		if err := icons.Seed(ctx, handle); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Connect",
				"package":  "securenotes",
				"error":    err.Error(),
			}).Warn("Catalog seeding failed")
		}
	}

	s.refreshState(ctx)

	if s.options.RefreshOnConnect {
		result := s.RefreshAll(ctx)
		result.log()
	}

	return nil
}

// Disconnect invalidates the session. Pending submissions are not
// retracted; they confirm or fail on the ledger regardless.
func (s *Session) Disconnect() {
	s.mu.Lock()
	account := s.account
	s.account = ""
	s.ledger = nil
	s.registry = nil
	s.notes = nil
	s.icons = nil
	s.mu.Unlock()

	if account != "" {
		logrus.WithFields(logrus.Fields{
			"function": "Disconnect",
			"package":  "securenotes",
			"account":  account,
		}).Info("Session disconnected")
	}

	s.setState(StateDisconnected)
}

// Account returns the connected account, or the empty address.
func (s *Session) Account() ledger.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStateChange sets the callback fired on session state changes. Only
// one callback is active; registering replaces the previous one.
func (s *Session) OnStateChange(callback StateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateCallback = callback
}

// Notes returns the connected account's note store, or nil while
// disconnected.
func (s *Session) Notes() *notes.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

// Icons returns the connected account's icon cache, or nil while
// disconnected.
func (s *Session) Icons() *icons.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.icons
}

// RegisterKey exports the wallet's encryption public key and registers
// it on the ledger, unlocking encrypted notes for this account.
func (s *Session) RegisterKey(ctx context.Context) error {
	account, _, reg, _, _, err := s.components()
	if err != nil {
		return err
	}

	if err := reg.Register(ctx, account); err != nil {
		return err
	}

	s.setState(StateReady)
	return nil
}

// SendNote encrypts plaintext for recipient's registered key and submits
// it to the ledger, blocking until confirmation. Validation failures
// (address, empty message, unregistered recipient) occur before any
// ledger write; ledger rejection surfaces as ErrSendFailed with the
// reason attached and leaves no partial state.
func (s *Session) SendNote(ctx context.Context, recipient ledger.Address, plaintext string) error {
	_, handle, reg, _, _, err := s.components()
	if err != nil {
		return err
	}

	if _, err := ledger.ParseAddress(string(recipient)); err != nil {
		return err
	}
	if len(plaintext) == 0 {
		return ErrEmptyMessage
	}

	encoded, err := reg.RegisteredKey(ctx, recipient)
	if err != nil {
		return err
	}
	if encoded == "" {
		return fmt.Errorf("%w: %s", ErrRecipientNotRegistered, recipient)
	}

	recipientPK, err := crypto.DecodePublicKey(encoded)
	if err != nil {
		return err
	}

	env, err := crypto.Seal([]byte(plaintext), recipientPK)
	if err != nil {
		return fmt.Errorf("failed to encrypt note: %w", err)
	}
	payload, err := env.Serialize()
	if err != nil {
		return fmt.Errorf("failed to encode note: %w", err)
	}

	tx, err := handle.SendEncryptedNote(ctx, recipient, payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "SendNote",
		"package":   "securenotes",
		"recipient": recipient,
		"tx":        tx.Hash(),
	}).Info("Submitted encrypted note")

	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "SendNote",
		"package":   "securenotes",
		"recipient": recipient,
	}).Info("Encrypted note confirmed")

	return nil
}

// ReadNote decrypts the note at id through the wallet and marks it read
// on the ledger, returning the plaintext for one-time display. A note is
// never flagged read before the wallet actually decrypted it.
//
// If the mark-read confirmation fails after the wallet decrypted, the
// plaintext is returned together with the error: the content was already
// shown, and the caller may retry via Notes().MarkRead without
// decrypting again.
func (s *Session) ReadNote(ctx context.Context, id uint64) (string, error) {
	account, _, _, store, _, err := s.components()
	if err != nil {
		return "", err
	}

	note, err := store.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if !note.Recipient.Equal(account) {
		return "", fmt.Errorf("%w: note %d is not addressed to %s", notes.ErrUnknownNote, id, account)
	}
	switch note.State {
	case notes.StateDeleted:
		return "", fmt.Errorf("%w: note %d", ErrNoteDeleted, id)
	case notes.StateRead:
		// Opened once; content is intentionally not re-displayed.
		return "", fmt.Errorf("%w: note %d", ErrNoteAlreadyRead, id)
	}

	// Validate envelope structure before handing the payload to the
	// wallet, so malformed payloads fail distinctly from denials.
	if _, err := crypto.ParseEnvelope(note.Payload); err != nil {
		return "", err
	}

	plaintext, err := s.wallet.Decrypt(ctx, note.Payload, account)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionDenied, err)
	}

	if err := store.MarkRead(ctx, id); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ReadNote",
			"package":  "securenotes",
			"note_id":  id,
			"error":    err.Error(),
		}).Warn("Note decrypted but mark-read did not confirm")
		return plaintext, err
	}

	return plaintext, nil
}

// DeleteNote flags the note at id as deleted on the ledger. Irreversible;
// the caller gathers explicit user confirmation before invoking it.
func (s *Session) DeleteNote(ctx context.Context, id uint64) error {
	_, _, _, store, _, err := s.components()
	if err != nil {
		return err
	}
	return store.MarkDeleted(ctx, id)
}

// Purchase buys the catalog listing at listingID as a gift for recipient
// at the cached price.
func (s *Session) Purchase(ctx context.Context, listingID uint64, recipient ledger.Address) error {
	_, _, _, _, cache, err := s.components()
	if err != nil {
		return err
	}
	return cache.Purchase(ctx, listingID, recipient)
}

// RefreshResult carries the outcome of a full reload. Each view loads
// and fails independently: an unavailable catalog does not block notes.
type RefreshResult struct {
	Notes    []notes.Note
	NotesErr error

	Catalog    []ledger.IconListing
	CatalogErr error

	Received    []icons.ReceivedIcon
	ReceivedErr error
}

// log records the per-view failures.
func (r *RefreshResult) log() {
	for view, err := range map[string]error{
		"notes":    r.NotesErr,
		"catalog":  r.CatalogErr,
		"received": r.ReceivedErr,
	} {
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "RefreshAll",
				"package":  "securenotes",
				"view":     view,
				"error":    err.Error(),
			}).Warn("View failed to refresh")
		}
	}
}

// RefreshAll reloads notes, the icon catalog, and received gifts from
// the ledger.
func (s *Session) RefreshAll(ctx context.Context) *RefreshResult {
	result := &RefreshResult{}

	_, _, _, store, cache, err := s.components()
	if err != nil {
		result.NotesErr = err
		result.CatalogErr = err
		result.ReceivedErr = err
		return result
	}

	result.Notes, result.NotesErr = store.Refresh(ctx)
	result.Catalog, result.CatalogErr = cache.RefreshCatalog(ctx)
	result.Received, result.ReceivedErr = cache.RefreshReceived(ctx)
	return result
}

// components snapshots the per-connection collaborators, failing with
// ErrNotConnected on a disconnected session.
func (s *Session) components() (ledger.Address, ledger.Ledger, *registry.Client, *notes.Store, *icons.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == "" {
		return "", nil, nil, nil, nil, ErrNotConnected
	}
	return s.account, s.ledger, s.registry, s.notes, s.icons, nil
}

// refreshState recomputes the registration-driven state after connect.
// A failed registry lookup leaves the session usable as unregistered;
// the next successful check corrects it.
func (s *Session) refreshState(ctx context.Context) {
	s.mu.Lock()
	account := s.account
	reg := s.registry
	s.mu.Unlock()
	if account == "" {
		return
	}

	registered, err := reg.IsRegistered(ctx, account)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "refreshState",
			"package":  "securenotes",
			"account":  account,
			"error":    err.Error(),
		}).Warn("Could not determine registration state")
		s.setState(StateUnregistered)
		return
	}

	if registered {
		s.setState(StateReady)
	} else {
		s.setState(StateUnregistered)
	}
}

// setState updates the session state and fires the callback outside the
// lock.
func (s *Session) setState(next SessionState) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	callback := s.stateCallback
	s.mu.Unlock()

	if callback != nil {
		callback(next)
	}
}
