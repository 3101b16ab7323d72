package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomchat/internal/app/store"
)

// ParticipantStore stores participants in the participants table. The primary key on
// name makes concurrent joins with the same name fail with store.ErrDuplicate.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

// NewParticipantStore returns a ParticipantStore backed by pool.
func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) Insert(ctx context.Context, p store.Participant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO participants (name, last_seen) VALUES ($1, $2)`,
		p.Name, p.LastSeen,
	)
	return translate(err)
}

func (s *ParticipantStore) FindByName(ctx context.Context, name string) (store.Participant, error) {
	var p store.Participant
	err := s.pool.QueryRow(ctx,
		`SELECT name, last_seen FROM participants WHERE name = $1`, name,
	).Scan(&p.Name, &p.LastSeen)
	if err != nil {
		return store.Participant{}, translate(err)
	}
	return p, nil
}

func (s *ParticipantStore) ListAll(ctx context.Context) ([]store.Participant, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, last_seen FROM participants`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Participant, error) {
		var p store.Participant
		err := row.Scan(&p.Name, &p.LastSeen)
		return p, err
	})
}

func (s *ParticipantStore) UpdateLastSeen(ctx context.Context, name string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE participants SET last_seen = $2 WHERE name = $1`, name, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ParticipantStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM participants WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
