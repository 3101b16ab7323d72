package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomchat/internal/app/store"
)

// MessageStore keeps messages under the "msg:" prefix, ordered by a badger sequence.
type MessageStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewMessageStore returns a MessageStore backed by db. Close must be called to release the
// leased sequence range before the database is closed.
func NewMessageStore(db *badger.DB) (*MessageStore, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to lease message sequence: %w", err)
	}
	return &MessageStore{db: db, seq: seq}, nil
}

// Close releases the unused part of the leased sequence.
func (s *MessageStore) Close() error {
	return s.seq.Release()
}

func (s *MessageStore) Insert(_ context.Context, m store.Message) (string, error) {
	n, err := s.seq.Next()
	if err != nil {
		return "", err
	}

	m.ID = uuid.NewString()
	bytes, err := json.Marshal(m)
	if err != nil {
		return "", err
	}

	key := messageKey(n)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(messageIDKey(m.ID), key)
	})
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *MessageStore) ListAll(_ context.Context) ([]store.Message, error) {
	messages := []store.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m store.Message
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func (s *MessageStore) FindByID(_ context.Context, id string) (store.Message, error) {
	var m store.Message
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := lookupMessageKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	return m, err
}

func (s *MessageStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := lookupMessageKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(messageIDKey(id))
	})
}

func lookupMessageKey(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(messageIDKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}
