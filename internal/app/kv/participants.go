package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"roomchat/internal/app/store"
)

// ParticipantStore keeps participants under the "participant:" prefix.
type ParticipantStore struct {
	db *badger.DB
}

// NewParticipantStore returns a ParticipantStore backed by db.
func NewParticipantStore(db *badger.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

// Insert writes p unless its name already exists. Two concurrent inserts of the same
// name both read an absent key; badger aborts the later commit with ErrConflict, which is
// reported as store.ErrDuplicate.
func (s *ParticipantStore) Insert(_ context.Context, p store.Participant) error {
	bytes, err := json.Marshal(p)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := participantKey(p.Name)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return store.ErrDuplicate
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, bytes)
	})
	if isConflict(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *ParticipantStore) FindByName(_ context.Context, name string) (store.Participant, error) {
	var p store.Participant
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getParticipant(txn, name)
		return err
	})
	return p, err
}

func (s *ParticipantStore) ListAll(_ context.Context) ([]store.Participant, error) {
	participants := []store.Participant{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(participantPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p store.Participant
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				participants = append(participants, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return participants, err
}

// UpdateLastSeen rewrites the participant's lastSeen. A commit that conflicts with a
// concurrent write is retried so the outcome reflects the record's latest state.
func (s *ParticipantStore) UpdateLastSeen(_ context.Context, name string, at time.Time) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(func(txn *badger.Txn) error {
			p, err := getParticipant(txn, name)
			if err != nil {
				return err
			}
			p.LastSeen = at
			bytes, err := json.Marshal(p)
			if err != nil {
				return err
			}
			return txn.Set(participantKey(name), bytes)
		})
		if !isConflict(err) {
			return err
		}
	}
	return err
}

func (s *ParticipantStore) Delete(_ context.Context, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := participantKey(name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func getParticipant(txn *badger.Txn, name string) (store.Participant, error) {
	item, err := txn.Get(participantKey(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.Participant{}, store.ErrNotFound
		}
		return store.Participant{}, err
	}

	var p store.Participant
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err
}
