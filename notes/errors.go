package notes

import "errors"

// Sentinel errors for store operations.
// These errors enable reliable classification using errors.Is().
var (
	// ErrReadFailed indicates the ledger did not confirm a mark-read
	// transaction; the note keeps its prior confirmed state.
	ErrReadFailed = errors.New("read transaction failed")

	// ErrDeleteFailed indicates the ledger did not confirm a delete
	// transaction; the note keeps its prior confirmed state.
	ErrDeleteFailed = errors.New("delete transaction failed")

	// ErrUnknownNote indicates a note id the ledger does not hold.
	ErrUnknownNote = errors.New("unknown note")
)
