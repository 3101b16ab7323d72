/*
Package store defines the durable records of the chat room and the collaborator interfaces
that persist them.

Implementations live in subpackages (memory) and sibling packages (db for PostgreSQL,
kv for BadgerDB). Every implementation enforces participant name uniqueness itself and keeps
messages in insertion order.
*/
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned when inserting a participant whose name is already stored.
	ErrDuplicate = errors.New("store: record already exists")

	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("store: record not found")
)

// MessageType classifies a stored message.
type MessageType string

const (
	// TypeMessage is a broadcast message visible to everyone.
	TypeMessage MessageType = "message"

	// TypePrivateMessage is visible only to its sender and its recipient.
	TypePrivateMessage MessageType = "private_message"

	// TypeStatus is a system generated join or leave notice.
	TypeStatus MessageType = "status"
)

// Broadcast is the recipient name that addresses the whole room. Status notices use it.
const Broadcast = "Todos"

// BroadcastAlias is accepted from clients as another name for Broadcast.
const BroadcastAlias = "All"

// IsBroadcast reports whether to addresses the whole room.
func IsBroadcast(to string) bool {
	return to == Broadcast || to == BroadcastAlias
}

// Participant is a live member of the room.
type Participant struct {
	Name     string    `json:"name"`
	LastSeen time.Time `json:"lastStatus"`
}

// Message is a stored chat message. Time is formatted once at write time.
type Message struct {
	ID   string      `json:"id"`
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
}

// VisibleTo reports whether the named participant may read the message.
func (m Message) VisibleTo(name string) bool {
	return IsBroadcast(m.To) || m.To == name || m.From == name
}

// ParticipantStore persists participants keyed by name.
type ParticipantStore interface {
	// Insert stores p, failing with ErrDuplicate when the name is taken.
	Insert(ctx context.Context, p Participant) error
	FindByName(ctx context.Context, name string) (Participant, error)
	ListAll(ctx context.Context) ([]Participant, error)
	UpdateLastSeen(ctx context.Context, name string, at time.Time) error
	Delete(ctx context.Context, name string) error
}

// MessageStore persists messages in insertion order.
type MessageStore interface {
	// Insert assigns an id to m, stores it and returns the id.
	Insert(ctx context.Context, m Message) (string, error)
	// ListAll returns every message, oldest first.
	ListAll(ctx context.Context) ([]Message, error)
	FindByID(ctx context.Context, id string) (Message, error)
	Delete(ctx context.Context, id string) error
}
