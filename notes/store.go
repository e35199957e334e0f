package notes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/ledger"
)

// Store maintains the notes addressed to one account, mirrored from the
// ledger. The cache is mutated only after ledger confirmation, never
// speculatively, so an aborted flow leaves at worst stale data that the
// next Refresh corrects.
type Store struct {
	mu     sync.RWMutex
	ledger ledger.Ledger
	owner  ledger.Address
	notes  map[uint64]*Note
}

// NewStore creates a store for the notes addressed to owner. The ledger
// handle must be bound to owner for mark-read and delete authorization.
func NewStore(l ledger.Ledger, owner ledger.Address) *Store {
	return &Store{
		ledger: l,
		owner:  owner,
		notes:  make(map[uint64]*Note),
	}
}

// Refresh rebuilds the cache from the ledger: every note from 0 to
// NoteCount-1 is examined, and those addressed to the owner (compared
// case-insensitively) and not deleted are retained. The returned snapshot
// is ordered by ascending id, oldest first; callers wanting newest-first
// reverse it.
//
// Cost is O(total note count) regardless of how many notes belong to the
// owner. An accepted scaling limit of the full-scan design.
func (s *Store) Refresh(ctx context.Context) ([]Note, error) {
	count, err := s.ledger.NoteCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate notes: %w", err)
	}

	rebuilt := make(map[uint64]*Note)
	snapshot := make([]Note, 0)

	for id := uint64(0); id < count; id++ {
		rec, err := s.ledger.Note(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch note %d: %w", id, err)
		}
		if !rec.Recipient.Equal(s.owner) || rec.IsDeleted {
			continue
		}

		note := fromRecord(rec)
		rebuilt[note.ID] = &note
		snapshot = append(snapshot, note)
	}

	s.mu.Lock()
	s.notes = rebuilt
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "Refresh",
		"package":     "notes",
		"owner":       s.owner,
		"ledger_size": count,
		"retained":    len(snapshot),
	}).Debug("Rebuilt note cache")

	return snapshot, nil
}

// Snapshot returns the cached notes, oldest first, without touching the
// ledger. Deleted notes are never included.
func (s *Store) Snapshot() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Note, 0, len(s.notes))
	for _, note := range s.notes {
		if note.State == StateDeleted {
			continue
		}
		snapshot = append(snapshot, *note)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	return snapshot
}

// Get returns the cached note at id.
func (s *Store) Get(id uint64) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	return *note, true
}

// Fetch reads the note at id directly from the ledger and refreshes the
// cached copy. It fails with ErrUnknownNote for ids the ledger does not
// hold.
func (s *Store) Fetch(ctx context.Context, id uint64) (Note, error) {
	rec, err := s.ledger.Note(ctx, id)
	if err != nil {
		return Note{}, fmt.Errorf("%w: %w", ErrUnknownNote, err)
	}

	note := fromRecord(rec)

	s.mu.Lock()
	if _, cached := s.notes[id]; cached || (rec.Recipient.Equal(s.owner) && !rec.IsDeleted) {
		copied := note
		s.notes[id] = &copied
	}
	s.mu.Unlock()

	return note, nil
}

// MarkRead submits the mark-read transaction for the note at id and
// flips the cached flag only after the ledger confirms. On failure the
// cached state is left exactly as it was.
func (s *Store) MarkRead(ctx context.Context, id uint64) error {
	if note, ok := s.Get(id); ok && note.State == StateRead {
		return nil
	}

	tx, err := s.ledger.ReadEncryptedNote(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	s.applyTransition(id, StateRead)

	logrus.WithFields(logrus.Fields{
		"function": "MarkRead",
		"package":  "notes",
		"note_id":  id,
	}).Info("Note marked read")

	return nil
}

// MarkDeleted submits the delete transaction for the note at id; same
// confirm-then-mutate discipline as MarkRead. Deletion is irreversible,
// so callers must gather explicit user confirmation first. Deleting a
// note the store already saw deleted is a no-op.
func (s *Store) MarkDeleted(ctx context.Context, id uint64) error {
	if note, ok := s.Get(id); ok && note.State == StateDeleted {
		return nil
	}

	tx, err := s.ledger.DeleteNote(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	s.applyTransition(id, StateDeleted)

	logrus.WithFields(logrus.Fields{
		"function": "MarkDeleted",
		"package":  "notes",
		"note_id":  id,
	}).Info("Note deleted")

	return nil
}

// applyTransition moves the cached note to next if the lifecycle permits
// it. Confirmed ledger state is authoritative, so an impermissible local
// transition is dropped rather than forced.
func (s *Store) applyTransition(id uint64, next State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || !note.State.canTransition(next) {
		return
	}
	note.State = next
}
