package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/enedis-gateway/internal/config"
	"github.com/jrsteele09/enedis-gateway/internal/postgres"
	"github.com/jrsteele09/enedis-gateway/metering"
	fakerecordrepo "github.com/jrsteele09/enedis-gateway/metering/repofake"
	"github.com/jrsteele09/enedis-gateway/sessions"
	"github.com/jrsteele09/enedis-gateway/sessions/redisstore"
	"github.com/jrsteele09/enedis-gateway/users"
	fakeuserrepo "github.com/jrsteele09/enedis-gateway/users/repofake"
	"github.com/rs/zerolog/log"
)

const sessionPruneInterval = 24 * time.Hour

// backends are the stores selected by configuration, plus whatever must be released on exit.
type backends struct {
	users    users.Repo
	records  metering.Repo
	sessions sessions.Store
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends uses Postgres and Redis when their URLs are set and in-memory stores otherwise.
func openBackends(ctx context.Context, cfg config.Storage) (*backends, error) {
	b := &backends{}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		if cfg.MigrateOnStart {
			if err := postgres.Migrate(pool); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.users = postgres.NewUserRepo(pool)
		b.records = postgres.NewRecordRepo(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set, users and metering records are kept in memory")
		b.users = fakeuserrepo.NewFakeUserRepo()
		b.records = fakerecordrepo.NewFakeRecordRepo()
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("[backends redis] %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.sessions = redisstore.New(client)
	} else {
		store := sessions.NewInMemoryStore()
		go store.RunPruner(ctx, sessionPruneInterval)
		b.sessions = store
	}
	return b, nil
}
