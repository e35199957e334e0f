package securenotes

import "errors"

// Sentinel errors for session operations. Input-validation errors are
// detected before any collaborator call; the rest carry the
// collaborator's reason via error wrapping. None of them end the
// session: every failure is reported and the session stays usable.
var (
	// ErrNotConnected indicates the session has no connected account.
	ErrNotConnected = errors.New("session not connected")

	// ErrAlreadyConnected indicates Connect on a live session.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrEmptyMessage indicates a send with no message text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrRecipientNotRegistered indicates a recipient with no registered
	// encryption key. Sending is categorically blocked; there is no
	// plaintext fallback.
	ErrRecipientNotRegistered = errors.New("recipient has not registered an encryption key")

	// ErrSendFailed indicates the ledger did not confirm a note
	// submission. The ledger either has the whole note or none of it.
	ErrSendFailed = errors.New("send failed")

	// ErrDecryptionDenied indicates the wallet declined or failed to
	// decrypt a note payload.
	ErrDecryptionDenied = errors.New("decryption denied")

	// ErrNoteAlreadyRead indicates a read of a note whose content was
	// already shown once. Read notes are opened once; plaintext is not
	// cached for replay.
	ErrNoteAlreadyRead = errors.New("note already read")

	// ErrNoteDeleted indicates a read of a deleted note.
	ErrNoteDeleted = errors.New("note is deleted")
)
