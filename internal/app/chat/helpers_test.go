package chat

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"roomchat/internal/app/store"
	"roomchat/internal/app/store/memory"
)

var epoch = time.Date(2026, 10, 14, 20, 4, 37, 0, time.Local)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []store.Message
}

func (p *recordingPublisher) Publish(msg store.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingPublisher) Published() []store.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]store.Message(nil), p.messages...)
}

type recordingDisconnector struct {
	mu    sync.Mutex
	names []string
}

func (d *recordingDisconnector) Disconnect(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
}

func (d *recordingDisconnector) Disconnected() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.names...)
}

type room struct {
	clock        *fakeClock
	participants *memory.ParticipantStore
	messages     *memory.MessageStore
	publisher    *recordingPublisher
	disconnector *recordingDisconnector
	presence     *Presence
	chat         *Messages
}

func newRoom() *room {
	r := &room{
		clock:        newFakeClock(),
		participants: memory.NewParticipantStore(),
		messages:     memory.NewMessageStore(),
		publisher:    &recordingPublisher{},
		disconnector: &recordingDisconnector{},
	}
	opts := []Option{WithClock(r.clock.Now), WithPublisher(r.publisher), WithDisconnector(r.disconnector)}
	r.presence = NewPresence(r.participants, r.messages, DefaultInactivityTimeout, opts...)
	r.chat = NewMessages(r.participants, r.messages, opts...)
	return r
}

func (r *room) history() []store.Message {
	all, _ := r.messages.ListAll(context.Background())
	return all
}

func statusMessages(history []store.Message, from, text string) []store.Message {
	var out []store.Message
	for _, m := range history {
		if m.Type == store.TypeStatus && m.From == from && m.Text == text {
			out = append(out, m)
		}
	}
	return out
}

// mockParticipantStore is a testify mock of store.ParticipantStore.
type mockParticipantStore struct {
	mock.Mock
}

func (m *mockParticipantStore) Insert(ctx context.Context, p store.Participant) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockParticipantStore) FindByName(ctx context.Context, name string) (store.Participant, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(store.Participant), args.Error(1)
}

func (m *mockParticipantStore) ListAll(ctx context.Context) ([]store.Participant, error) {
	args := m.Called(ctx)
	participants, _ := args.Get(0).([]store.Participant)
	return participants, args.Error(1)
}

func (m *mockParticipantStore) UpdateLastSeen(ctx context.Context, name string, at time.Time) error {
	return m.Called(ctx, name, at).Error(0)
}

func (m *mockParticipantStore) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

// mockMessageStore is a testify mock of store.MessageStore.
type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) Insert(ctx context.Context, msg store.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *mockMessageStore) ListAll(ctx context.Context) ([]store.Message, error) {
	args := m.Called(ctx)
	messages, _ := args.Get(0).([]store.Message)
	return messages, args.Error(1)
}

func (m *mockMessageStore) FindByID(ctx context.Context, id string) (store.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(store.Message), args.Error(1)
}

func (m *mockMessageStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
