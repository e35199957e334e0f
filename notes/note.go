// Package notes implements the note store: the authoritative-from-ledger
// set of notes addressed to the current account and their lifecycle
// state.
//
// State transitions are proposed locally but authoritative only once the
// ledger confirms; a failed transaction leaves a note in its prior
// confirmed state.
package notes

import (
	"time"

	"github.com/opd-ai/securenotes/ledger"
)

// State represents a note's lifecycle state.
type State uint8

const (
	// StateSent means the note is stored and unread.
	StateSent State = iota
	// StateRead means the recipient has decrypted and read the note.
	StateRead
	// StateDeleted means the recipient deleted the note. Terminal.
	StateDeleted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateRead:
		return "read"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// canTransition reports whether the lifecycle permits moving to next.
// Flags only ever go false to true: sent notes can be read or deleted,
// read notes deleted, deleted notes nothing.
func (s State) canTransition(next State) bool {
	switch s {
	case StateSent:
		return next == StateRead || next == StateDeleted
	case StateRead:
		return next == StateDeleted
	default:
		return false
	}
}

// Note is the store's view of one ledger note.
type Note struct {
	ID        uint64
	Sender    ledger.Address
	Recipient ledger.Address
	Payload   string
	Timestamp time.Time
	State     State
}

// fromRecord converts a ledger record to the store's representation.
func fromRecord(rec ledger.NoteRecord) Note {
	state := StateSent
	if rec.IsRead {
		state = StateRead
	}
	if rec.IsDeleted {
		state = StateDeleted
	}
	return Note{
		ID:        rec.ID,
		Sender:    rec.Sender,
		Recipient: rec.Recipient,
		Payload:   rec.Payload,
		Timestamp: rec.Timestamp,
		State:     state,
	}
}
