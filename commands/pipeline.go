// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/fieldcode/catalog"
	"github.com/danielhkuo/fieldcode/cliparse"
	"github.com/danielhkuo/fieldcode/db"
	"github.com/danielhkuo/fieldcode/keylock"
)

// openStore connects to the configured database and makes sure the schema
// exists.
func openStore(ctx context.Context, c cliparse.Config) (*db.Store, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	store, err := db.Open(ctx, c.DatabaseType, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	return store, nil
}

func loadCatalog(c cliparse.Config) (*catalog.Catalog, error) {
	if err := c.RequireCatalog(); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(c.CatalogPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded", "path", c.CatalogPath, "forms", len(cat.Forms))
	return cat, nil
}

// newLocker returns a Redis-backed locker when a Redis address is configured,
// so several ingest processes can share one database. Otherwise locks are
// in-process.
func newLocker(ctx context.Context, c cliparse.Config) (keylock.Locker, func(), error) {
	if c.RedisAddr == "" {
		return keylock.NewMemoryLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	locker, err := keylock.NewRedisLocker(rdb, c.Instance)
	if err != nil {
		rdb.Close()
		return nil, nil, err
	}
	if err := locker.Ping(ctx); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.RedisAddr, err)
	}

	slog.Info("using Redis key locks", "addr", c.RedisAddr, "instance", c.Instance)
	return locker, func() { rdb.Close() }, nil
}
