package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomchat/internal/app/store"
)

const messageColumns = `id, from_name, to_name, body, type, sent_time`

// MessageStore stores messages in the messages table. The seq column records insertion order.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore returns a MessageStore backed by pool.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func scanMessage(row pgx.Row) (store.Message, error) {
	var (
		m   store.Message
		id  uuid.UUID
		typ string
	)
	if err := row.Scan(&id, &m.From, &m.To, &m.Text, &typ, &m.Time); err != nil {
		return store.Message{}, err
	}
	m.ID = id.String()
	m.Type = store.MessageType(typ)
	return m, nil
}

func (s *MessageStore) Insert(ctx context.Context, m store.Message) (string, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, m.From, m.To, m.Text, string(m.Type), m.Time,
	)
	if err != nil {
		return "", translate(err)
	}
	return id.String(), nil
}

func (s *MessageStore) ListAll(ctx context.Context) ([]store.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY seq`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Message, error) {
		return scanMessage(row)
	})
}

func (s *MessageStore) FindByID(ctx context.Context, id string) (store.Message, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.Message{}, store.ErrNotFound
	}

	m, err := scanMessage(s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, parsed,
	))
	if err != nil {
		return store.Message{}, translate(err)
	}
	return m, nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, parsed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
