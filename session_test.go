package securenotes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/securenotes/ledger"
	"github.com/opd-ai/securenotes/notes"
	"github.com/opd-ai/securenotes/wallet"
)

// connectParticipant wires a fresh wallet account to the shared ledger
// and returns a connected session. Each participant gets its own wallet
// so sessions bind distinct primary accounts.
func connectParticipant(t *testing.T, chain *ledger.MemoryLedger, register bool) (*Session, *wallet.LocalWallet, ledger.Address) {
	t.Helper()

	w := wallet.NewLocalWallet()
	account, err := w.CreateAccount()
	require.NoError(t, err)

	opts := NewOptions()
	opts.RefreshOnConnect = false

	session := NewSession(chain, w, opts)
	require.NoError(t, session.Connect(context.Background()))
	require.True(t, session.Account().Equal(account))

	if register {
		require.NoError(t, session.RegisterKey(context.Background()))
		require.Equal(t, StateReady, session.State())
	}
	return session, w, account
}

func TestSessionConnectLifecycle(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	session, _, account := connectParticipant(t, chain, false)

	assert.Equal(t, StateUnregistered, session.State())
	assert.NotEmpty(t, account)
	assert.NotNil(t, session.Notes())
	assert.NotNil(t, session.Icons())

	err := session.Connect(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyConnected)

	session.Disconnect()
	assert.Equal(t, StateDisconnected, session.State())
	assert.Empty(t, session.Account())
	assert.Nil(t, session.Notes())

	err = session.SendNote(context.Background(), account, "hello")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionConnectDenied(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	w := wallet.NewLocalWallet()
	_, err := w.CreateAccount()
	require.NoError(t, err)
	w.DenyNext("RequestAccounts")

	session := NewSession(chain, w, nil)
	err = session.Connect(context.Background())
	assert.ErrorIs(t, err, wallet.ErrDenied)
	assert.Equal(t, StateDisconnected, session.State())
}

func TestSessionRegisterKey(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	session, w, account := connectParticipant(t, chain, false)

	require.NoError(t, session.RegisterKey(context.Background()))
	assert.Equal(t, StateReady, session.State())

	key, err := chain.Connect(account).EncryptionKey(context.Background(), account)
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	// A second session over the same account sees the registration.
	opts := NewOptions()
	opts.RefreshOnConnect = false
	again := NewSession(chain, w, opts)
	require.NoError(t, again.Connect(context.Background()))
	assert.Equal(t, StateReady, again.State())
}

func TestSessionSendAndReadNote(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, addrAlice := connectParticipant(t, chain, true)
	bob, _, addrBob := connectParticipant(t, chain, true)

	const plaintext = "Happy Birthday!"
	require.NoError(t, alice.SendNote(context.Background(), addrBob, plaintext))

	count, err := chain.Connect(addrBob).NoteCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	rec, err := chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, rec.Sender.Equal(addrAlice))
	assert.True(t, rec.Recipient.Equal(addrBob))
	assert.False(t, rec.IsRead)
	assert.NotEqual(t, plaintext, rec.Payload, "ledger must never carry plaintext")

	got, err := bob.ReadNote(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	rec, err = chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, rec.IsRead)

	_, err = bob.ReadNote(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoteAlreadyRead)
}

func TestSessionReadNoteWrongRecipient(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	_, _, addrBob := connectParticipant(t, chain, true)

	require.NoError(t, alice.SendNote(context.Background(), addrBob, "for bob only"))

	_, err := alice.ReadNote(context.Background(), 0)
	assert.ErrorIs(t, err, notes.ErrUnknownNote)
}

func TestSessionSendValidation(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	_, _, addrBob := connectParticipant(t, chain, false)

	err := alice.SendNote(context.Background(), "0xnothex", "hello")
	assert.ErrorIs(t, err, ledger.ErrInvalidAddress)

	err = alice.SendNote(context.Background(), addrBob, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	// Bob never registered a key.
	err = alice.SendNote(context.Background(), addrBob, "hello")
	assert.ErrorIs(t, err, ErrRecipientNotRegistered)

	count, err := chain.Connect(addrBob).NoteCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed sends must not reach the ledger")
}

func TestSessionSendFailed(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	_, _, addrBob := connectParticipant(t, chain, true)

	rejection := errors.New("out of gas")
	chain.FailNext("SendEncryptedNote", rejection)

	err := alice.SendNote(context.Background(), addrBob, "hello")
	assert.ErrorIs(t, err, ErrSendFailed)
	assert.ErrorIs(t, err, rejection)

	count, err := chain.Connect(addrBob).NoteCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionReadDecryptionDenied(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	bob, bobWallet, addrBob := connectParticipant(t, chain, true)

	require.NoError(t, alice.SendNote(context.Background(), addrBob, "secret"))

	bobWallet.DenyNext("Decrypt")
	_, err := bob.ReadNote(context.Background(), 0)
	assert.ErrorIs(t, err, ErrDecryptionDenied)

	rec, err := chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, rec.IsRead, "a denied decryption must not mark the note read")

	// The denial consumed, reading now succeeds.
	got, err := bob.ReadNote(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestSessionReadMarkReadFailure(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	bob, _, addrBob := connectParticipant(t, chain, true)

	require.NoError(t, alice.SendNote(context.Background(), addrBob, "secret"))

	chain.FailNext("ReadEncryptedNote", errors.New("reverted"))
	got, err := bob.ReadNote(context.Background(), 0)
	assert.ErrorIs(t, err, notes.ErrReadFailed)
	assert.Equal(t, "secret", got, "decrypted content is returned even when mark-read fails")

	rec, err := chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, rec.IsRead)

	// Retrying the flag does not require decrypting again.
	require.NoError(t, bob.Notes().MarkRead(context.Background(), 0))
	rec, err = chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, rec.IsRead)
}

func TestSessionDeleteNote(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	bob, _, addrBob := connectParticipant(t, chain, true)

	require.NoError(t, alice.SendNote(context.Background(), addrBob, "unread"))
	require.NoError(t, alice.SendNote(context.Background(), addrBob, "read first"))

	_, err := bob.ReadNote(context.Background(), 1)
	require.NoError(t, err)

	// Deleting works from both the unread and the read state.
	require.NoError(t, bob.DeleteNote(context.Background(), 0))
	require.NoError(t, bob.DeleteNote(context.Background(), 1))

	rec, err := chain.Connect(addrBob).Note(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, rec.IsDeleted)

	_, err = bob.ReadNote(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoteDeleted)
}

func TestSessionRefreshAllDegradation(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	alice, _, _ := connectParticipant(t, chain, true)
	bob, _, addrBob := connectParticipant(t, chain, true)

	require.NoError(t, alice.SendNote(context.Background(), addrBob, "still readable"))

	chain.FailNext("IconCount", ledger.ErrUnavailable)
	result := bob.RefreshAll(context.Background())

	assert.ErrorIs(t, result.CatalogErr, ledger.ErrUnavailable)
	require.NoError(t, result.NotesErr)
	require.Len(t, result.Notes, 1)
	assert.True(t, result.Notes[0].Recipient.Equal(addrBob))
}

func TestSessionSeededCatalogPurchase(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	_, _, addrBob := connectParticipant(t, chain, false)

	w := wallet.NewLocalWallet()
	_, err := w.CreateAccount()
	require.NoError(t, err)

	opts := NewOptions()
	opts.SeedCatalog = true
	alice := NewSession(chain, w, opts)
	require.NoError(t, alice.Connect(context.Background()))

	catalog := alice.Icons().Catalog()
	require.Len(t, catalog, 4)

	require.NoError(t, alice.Purchase(context.Background(), catalog[0].ID, addrBob))

	gifts, err := chain.Connect(addrBob).ReceivedIcons(context.Background())
	require.NoError(t, err)
	require.Len(t, gifts, 1)
	assert.Equal(t, catalog[0].ID, gifts[0].IconID)
}

func TestSessionAccountChangeInvalidates(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	w := wallet.NewLocalWallet()
	first, err := w.CreateAccount()
	require.NoError(t, err)
	second, err := w.CreateAccount()
	require.NoError(t, err)

	opts := NewOptions()
	opts.RefreshOnConnect = false
	session := NewSession(chain, w, opts)
	require.NoError(t, session.Connect(context.Background()))
	require.True(t, session.Account().Equal(first))

	require.NoError(t, w.SwitchAccount(second))

	assert.Equal(t, StateDisconnected, session.State())
	assert.Empty(t, session.Account())
	err = session.SendNote(context.Background(), first, "hello")
	assert.ErrorIs(t, err, ErrNotConnected)

	// Reconnecting binds the new primary account.
	require.NoError(t, session.Connect(context.Background()))
	assert.True(t, session.Account().Equal(second))
}

func TestSessionStateCallback(t *testing.T) {
	chain := ledger.NewMemoryLedger()
	w := wallet.NewLocalWallet()
	_, err := w.CreateAccount()
	require.NoError(t, err)

	opts := NewOptions()
	opts.RefreshOnConnect = false
	session := NewSession(chain, w, opts)

	var transitions []SessionState
	session.OnStateChange(func(state SessionState) {
		transitions = append(transitions, state)
	})

	require.NoError(t, session.Connect(context.Background()))
	require.NoError(t, session.RegisterKey(context.Background()))
	session.Disconnect()

	assert.Equal(t, []SessionState{StateUnregistered, StateReady, StateDisconnected}, transitions)
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "unregistered", StateUnregistered.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unknown", SessionState(99).String())
}
