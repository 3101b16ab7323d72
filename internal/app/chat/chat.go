/*
Package chat contains the core logic of the chat room.

It holds the Presence manager (join, heartbeat, leave, expiry of silent participants), the
Sweeper that runs expiry on a schedule, and the Messages service that applies the
visibility policy. Components are pure decision layers over the participant and message
stores; they keep no authoritative state of their own.
*/
package chat

import (
	"errors"
	"time"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/errs"
)

const (
	// JoinNotice is the text of the status message recorded when a participant joins.
	JoinNotice = "entra na sala..."

	// LeaveNotice is the text of the status message recorded when a participant leaves or expires.
	LeaveNotice = "sai da sala..."

	// DefaultInactivityTimeout is how long a participant may stay silent before expiring.
	DefaultInactivityTimeout = 10 * time.Second

	// DefaultSweepInterval is the period of the expiry sweep.
	DefaultSweepInterval = 15 * time.Second

	// DefaultListLimit is the number of messages returned when the caller gives no limit.
	DefaultListLimit = 100

	// timeLayout renders message timestamps as HH:MM:SS.
	timeLayout = "15:04:05"
)

// Clock returns the current time.
type Clock func() time.Time

// FormatTime renders t the way message timestamps are stored.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// Publisher receives every message after it has been stored.
type Publisher interface {
	Publish(msg store.Message)
}

type discardPublisher struct{}

func (discardPublisher) Publish(store.Message) {}

// Disconnector ends the live sessions of a participant who is no longer in the room.
type Disconnector interface {
	Disconnect(name string)
}

type discardDisconnector struct{}

func (discardDisconnector) Disconnect(string) {}

type settings struct {
	clock        Clock
	publisher    Publisher
	disconnector Disconnector
}

// Option configures the chat services.
type Option func(*settings)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithPublisher registers a publisher notified after each stored message.
func WithPublisher(p Publisher) Option {
	return func(s *settings) { s.publisher = p }
}

// WithDisconnector registers who is told when a participant leaves or expires.
func WithDisconnector(d Disconnector) Option {
	return func(s *settings) { s.disconnector = d }
}

func newSettings(opts []Option) settings {
	s := settings{clock: time.Now, publisher: discardPublisher{}, disconnector: discardDisconnector{}}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// storeFailure wraps a store error that has no business meaning.
func storeFailure(err error) error {
	return errs.Wrap(errs.ErrStoreUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
