/*
Package kv implements the participant and message stores on an embedded BadgerDB.

Keys:
  - "participant:{name}" holds the JSON encoded participant.
  - "msg:{seq}" holds the JSON encoded message; seq is a 20 digit zero padded counter so
    a prefix scan returns messages in insertion order.
  - "msgid:{id}" points from a message id to its "msg:" key.
*/
package kv

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	participantPrefix = "participant:"
	messagePrefix     = "msg:"
	messageIDPrefix   = "msgid:"
	sequenceKey       = "seq:messages"

	// sequenceBandwidth is how many sequence numbers badger leases at a time.
	sequenceBandwidth = 100

	maxConflictRetries = 3
)

// Open opens (or creates) the badger database stored under path.
func Open(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return db, nil
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func messageKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", messagePrefix, seq)
}

func messageIDKey(id string) []byte {
	return []byte(messageIDPrefix + id)
}

// isConflict reports whether err is badger's optimistic transaction conflict.
func isConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}
