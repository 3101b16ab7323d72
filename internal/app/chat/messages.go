package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"roomchat/internal/app/store"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/sanitize"
)

// Messages stores messages from live participants and answers reads with the
// visibility policy applied.
type Messages struct {
	participants store.ParticipantStore
	messages     store.MessageStore

	clock     Clock
	publisher Publisher
	logger    zerolog.Logger
}

// NewMessages constructs a Messages service over the given stores.
func NewMessages(participants store.ParticipantStore, messages store.MessageStore, opts ...Option) *Messages {
	s := newSettings(opts)

	return &Messages{
		participants: participants,
		messages:     messages,
		clock:        s.clock,
		publisher:    s.publisher,
		logger:       logx.Component("messages"),
	}
}

// Send stores a broadcast or private message from a live participant. The server
// stamps the time; to and text are stripped of HTML and must remain non-empty.
func (m *Messages) Send(ctx context.Context, from, to, text string, typ store.MessageType) (store.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return store.Message{}, errs.NewError(errs.ErrRequesterMissing)
	}

	if typ != store.TypeMessage && typ != store.TypePrivateMessage {
		return store.Message{}, errs.NewError(errs.ErrMessageTypeInvalid)
	}

	to, text = sanitize.Text(to), sanitize.Text(text)
	if to == "" || text == "" {
		return store.Message{}, errs.NewError(errs.ErrInvalidParams)
	}

	if _, err := m.participants.FindByName(ctx, from); err != nil {
		if isNotFound(err) {
			return store.Message{}, errs.NewError(errs.ErrSenderNotInRoom)
		}
		return store.Message{}, storeFailure(err)
	}

	msg := store.Message{
		From: from,
		To:   to,
		Text: text,
		Type: typ,
		Time: FormatTime(m.clock()),
	}

	id, err := m.messages.Insert(ctx, msg)
	if err != nil {
		return store.Message{}, storeFailure(err)
	}
	msg.ID = id

	m.publisher.Publish(msg)
	return msg, nil
}

// List returns the most recent limit messages visible to requester, oldest first.
// A message is visible when it is addressed to everyone, to the requester, or was sent
// by the requester.
func (m *Messages) List(ctx context.Context, requester string, limit int) ([]store.Message, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil, errs.NewError(errs.ErrRequesterMissing)
	}
	if limit <= 0 {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	all, err := m.messages.ListAll(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}

	return LatestVisible(all, requester, limit), nil
}

// LatestVisible keeps the messages of history visible to requester and returns the last
// limit of them in their original order. history must be oldest first.
func LatestVisible(history []store.Message, requester string, limit int) []store.Message {
	visible := lo.Filter(history, func(msg store.Message, _ int) bool {
		return msg.VisibleTo(requester)
	})

	if len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible
}

// Delete removes a message on behalf of its sender.
func (m *Messages) Delete(ctx context.Context, id, requester string) error {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return errs.NewError(errs.ErrRequesterMissing)
	}

	msg, err := m.messages.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return storeFailure(err)
	}

	if msg.From != requester {
		m.logger.Warn().
			Str("message_id", id).
			Str("participant", requester).
			Msg("Delete rejected: requester is not the sender.")
		return errs.NewError(errs.ErrNotMessageOwner)
	}

	if err := m.messages.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return storeFailure(err)
	}
	return nil
}
