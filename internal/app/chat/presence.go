package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/sanitize"
)

// Presence tracks who is in the room, refreshes liveness and expires silent participants.
type Presence struct {
	participants store.ParticipantStore
	messages     store.MessageStore

	// threshold is the inactivity after which a participant is removed.
	threshold time.Duration

	clock        Clock
	publisher    Publisher
	disconnector Disconnector
	logger       zerolog.Logger
}

// NewPresence constructs a Presence over the given stores. A non-positive threshold
// selects DefaultInactivityTimeout.
func NewPresence(participants store.ParticipantStore, messages store.MessageStore, threshold time.Duration, opts ...Option) *Presence {
	if threshold <= 0 {
		threshold = DefaultInactivityTimeout
	}
	s := newSettings(opts)

	return &Presence{
		participants: participants,
		messages:     messages,
		threshold:    threshold,
		clock:        s.clock,
		publisher:    s.publisher,
		disconnector: s.disconnector,
		logger:       logx.Component("presence"),
	}
}

// Join admits a participant. The name is trimmed and stripped of HTML first.
// A store rejection of a duplicate name is reported as ErrParticipantNameTaken.
//
// The participant record and its join notice are two separate writes. If the notice
// fails the participant stays joined and the failure is returned as ErrStoreUnavailable.
func (p *Presence) Join(ctx context.Context, rawName string) (store.Participant, error) {
	name := sanitize.Text(rawName)
	if name == "" {
		return store.Participant{}, errs.NewError(errs.ErrInvalidParams)
	}

	participant := store.Participant{Name: name, LastSeen: p.clock()}

	if err := p.participants.Insert(ctx, participant); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			p.logger.Warn().Str("participant", name).Msg("Join rejected: name already in the room.")
			return store.Participant{}, errs.NewError(errs.ErrParticipantNameTaken)
		}
		return store.Participant{}, storeFailure(err)
	}

	if err := p.announce(ctx, name, JoinNotice); err != nil {
		p.logger.Error().Err(err).Str("participant", name).Msg("Participant joined but the join notice was not recorded.")
		return participant, storeFailure(err)
	}

	p.logger.Info().Str("participant", name).Msg("Participant joined.")
	return participant, nil
}

// Heartbeat refreshes the liveness of an existing participant.
func (p *Presence) Heartbeat(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewError(errs.ErrRequesterMissing)
	}

	if err := p.participants.UpdateLastSeen(ctx, name, p.clock()); err != nil {
		if isNotFound(err) {
			return errs.NewError(errs.ErrParticipantNotFound)
		}
		return storeFailure(err)
	}
	return nil
}

// Leave removes a participant on request, records the departure notice and closes
// the participant's live feed sessions.
func (p *Presence) Leave(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewError(errs.ErrRequesterMissing)
	}

	if err := p.participants.Delete(ctx, name); err != nil {
		if isNotFound(err) {
			return errs.NewError(errs.ErrParticipantNotFound)
		}
		return storeFailure(err)
	}
	defer p.disconnector.Disconnect(name)

	if err := p.announce(ctx, name, LeaveNotice); err != nil {
		p.logger.Error().Err(err).Str("participant", name).Msg("Participant left but the leave notice was not recorded.")
		return storeFailure(err)
	}

	p.logger.Info().Str("participant", name).Msg("Participant left.")
	return nil
}

// Find returns the named participant, or ErrParticipantNotFound.
func (p *Presence) Find(ctx context.Context, name string) (store.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Participant{}, errs.NewError(errs.ErrRequesterMissing)
	}

	participant, err := p.participants.FindByName(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return store.Participant{}, errs.NewError(errs.ErrParticipantNotFound)
		}
		return store.Participant{}, storeFailure(err)
	}
	return participant, nil
}

// ListParticipants returns every participant currently in the room, in store order.
func (p *Presence) ListParticipants(ctx context.Context) ([]store.Participant, error) {
	participants, err := p.participants.ListAll(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return participants, nil
}

// ExpireInactive removes every participant silent for longer than the threshold and
// records one leave notice per removed participant. Participants are processed one at a
// time; a failure on one is captured and the rest are still processed. It returns the
// names that were removed and the joined per-participant errors.
func (p *Presence) ExpireInactive(ctx context.Context) ([]string, error) {
	participants, err := p.participants.ListAll(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}

	now := p.clock()
	var (
		removed  []string
		failures []error
	)

	for _, participant := range participants {
		if !p.expired(participant, now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		gone, err := p.expire(ctx, participant.Name, now)
		if err != nil {
			failures = append(failures, fmt.Errorf("expire %q: %w", participant.Name, err))
		}
		if gone {
			removed = append(removed, participant.Name)
		}
	}

	return removed, errors.Join(failures...)
}

func (p *Presence) expired(participant store.Participant, now time.Time) bool {
	return now.Sub(participant.LastSeen) > p.threshold
}

// expire removes one participant. It re-reads the record first so a heartbeat that
// landed after the listing keeps the participant in the room. The boolean reports
// whether the record was deleted, even if the notice afterwards failed.
func (p *Presence) expire(ctx context.Context, name string, now time.Time) (bool, error) {
	current, err := p.participants.FindByName(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if !p.expired(current, now) {
		return false, nil
	}

	if err := p.participants.Delete(ctx, name); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	defer p.disconnector.Disconnect(name)

	if err := p.announce(ctx, name, LeaveNotice); err != nil {
		p.logger.Error().Err(err).Str("participant", name).Msg("Participant expired but the leave notice was not recorded.")
		return true, err
	}

	p.logger.Info().
		Str("participant", name).
		Dur("silent_for", now.Sub(current.LastSeen)).
		Msg("Participant expired.")
	return true, nil
}

// announce records a status message authored by name and addressed to everyone.
func (p *Presence) announce(ctx context.Context, name, text string) error {
	msg := store.Message{
		From: name,
		To:   store.Broadcast,
		Text: text,
		Type: store.TypeStatus,
		Time: FormatTime(p.clock()),
	}

	id, err := p.messages.Insert(ctx, msg)
	if err != nil {
		return err
	}
	msg.ID = id
	p.publisher.Publish(msg)
	return nil
}
