package main

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomchat/internal/app/db"
	"roomchat/internal/app/kv"
	"roomchat/internal/app/store"
	"roomchat/internal/app/store/memory"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/logx"
)

// storeSet is the pair of stores for the configured driver plus whatever must be released on exit.
type storeSet struct {
	participants store.ParticipantStore
	messages     store.MessageStore
	closers      []func() error
}

func openStores(ctx context.Context, cfg *configs.AppConfig) (*storeSet, error) {
	switch cfg.StoreDriver {
	case configs.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return postgresStores(pool), nil

	case configs.DriverBadger:
		bdb, err := kv.Open(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return badgerStores(bdb)

	default:
		return &storeSet{
			participants: memory.NewParticipantStore(),
			messages:     memory.NewMessageStore(),
		}, nil
	}
}

func postgresStores(pool *pgxpool.Pool) *storeSet {
	return &storeSet{
		participants: db.NewParticipantStore(pool),
		messages:     db.NewMessageStore(pool),
		closers: []func() error{func() error {
			pool.Close()
			return nil
		}},
	}
}

func badgerStores(bdb *badger.DB) (*storeSet, error) {
	messages, err := kv.NewMessageStore(bdb)
	if err != nil {
		return nil, errors.Join(err, bdb.Close())
	}

	return &storeSet{
		participants: kv.NewParticipantStore(bdb),
		messages:     messages,
		// The sequence is released before the database closes.
		closers: []func() error{messages.Close, bdb.Close},
	}, nil
}

// Close releases the stores in order and logs any failure.
func (s *storeSet) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			logx.Error(err, "Failed to close store")
		}
	}
}
