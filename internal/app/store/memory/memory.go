// Package memory implements the participant and message stores in process memory.
// It is the default driver for local runs and the substitute store in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomchat/internal/app/store"
)

// ParticipantStore keeps participants in a map guarded by a mutex.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]store.Participant
	// order keeps names in insertion order so ListAll is stable.
	order []string
}

// NewParticipantStore returns an empty ParticipantStore.
func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]store.Participant)}
}

func (s *ParticipantStore) Insert(_ context.Context, p store.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[p.Name]; ok {
		return store.ErrDuplicate
	}
	s.participants[p.Name] = p
	s.order = append(s.order, p.Name)
	return nil
}

func (s *ParticipantStore) FindByName(_ context.Context, name string) (store.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[name]
	if !ok {
		return store.Participant{}, store.ErrNotFound
	}
	return p, nil
}

func (s *ParticipantStore) ListAll(_ context.Context) ([]store.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Participant, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.participants[name])
	}
	return out, nil
}

func (s *ParticipantStore) UpdateLastSeen(_ context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return store.ErrNotFound
	}
	p.LastSeen = at
	s.participants[name] = p
	return nil
}

func (s *ParticipantStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[name]; !ok {
		return store.ErrNotFound
	}
	delete(s.participants, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MessageStore keeps messages in an append-only slice.
type MessageStore struct {
	mu       sync.RWMutex
	messages []store.Message
}

// NewMessageStore returns an empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Insert(_ context.Context, m store.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.NewString()
	s.messages = append(s.messages, m)
	return m.ID, nil
}

func (s *MessageStore) ListAll(_ context.Context) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *MessageStore) FindByID(_ context.Context, id string) (store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return store.Message{}, store.ErrNotFound
}

func (s *MessageStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
