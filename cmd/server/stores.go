package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/groups/mongostore"
	"github.com/jrsteele09/go-accounts-dashboard/groups/repofakes"
	"github.com/jrsteele09/go-accounts-dashboard/groups/sqlstore"
	"github.com/jrsteele09/go-accounts-dashboard/internal/config"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/jrsteele09/go-accounts-dashboard/sessions/redisrepo"
	"github.com/rs/zerolog/log"
)

func openSessionStore(ctx context.Context, c config.Config) (sessions.Repo, func(), error) {
	switch driver := c.GetSessionStore(); driver {
	case config.StoreMemory:
		log.Info().Msg("using in-memory session store")
		return sessions.NewInMemoryRepo(c.GetMaxSessionAge()), func() {}, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.E(errors.ErrConfiguration, "main.openSessionStore", "redis_ping", err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("using redis session store")
		repo := redisrepo.New(client, c.GetMaxSessionAge(), redisrepo.WithPrefix(c.GetRedisPrefix()))
		return repo, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.E(errors.ErrConfiguration, "main.openSessionStore", "unknown session store "+driver, nil)
	}
}

func openGroupStore(ctx context.Context, c config.Config) (groups.Repo, func(), error) {
	const op = "main.openGroupStore"
	switch driver := c.GetGroupStore(); driver {
	case config.StoreMemory:
		log.Info().Msg("using in-memory group store")
		return repofakes.NewFakeGroupRepo(), func() {}, nil
	case config.StoreSQLite:
		store, err := sqlstore.OpenSQLite(ctx, c.GetDatabaseDSN())
		if err != nil {
			return nil, nil, errors.E(errors.ErrPersistence, op, "sqlite", err)
		}
		log.Info().Str("path", c.GetDatabaseDSN()).Msg("using sqlite group store")
		return store, func() { _ = store.Close() }, nil
	case config.StorePostgres:
		store, err := sqlstore.OpenPostgres(ctx, c.GetDatabaseDSN())
		if err != nil {
			return nil, nil, errors.E(errors.ErrPersistence, op, "postgres", err)
		}
		log.Info().Msg("using postgres group store")
		return store, func() { _ = store.Close() }, nil
	case config.StoreMongo:
		store, err := mongostore.Connect(ctx, c.GetMongoURI(), c.GetMongoDatabase())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(cctx)
		}, nil
	default:
		return nil, nil, errors.E(errors.ErrConfiguration, op, "unknown group store "+driver, nil)
	}
}
