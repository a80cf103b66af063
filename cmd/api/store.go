package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"casino-miniapp-backend/internal/config"
	"casino-miniapp-backend/internal/repository"
	"casino-miniapp-backend/internal/repository/memory"
	"casino-miniapp-backend/internal/repository/mysql"
	"casino-miniapp-backend/internal/repository/postgres"
	"casino-miniapp-backend/internal/repository/redisstore"
)

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	return redisstore.Connect(ctx, redisstore.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// needsRedis reports whether any component is configured to use Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Storage.Driver == "redis" || cfg.Ledger.Lock == "redis"
}

// openStore builds the account and transaction repositories for the
// configured driver. The redis driver shares the given client.
func openStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zap.Logger) (*repository.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("using in-memory storage, balances are lost on restart")
		return memory.NewRepositoryStore(memory.New()), nil

	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis storage requires a redis client")
		}
		// The client is closed by main, not by the store.
		s := redisstore.New(rdb)
		return repository.NewStore(s, s, s, nil), nil

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		store, err := postgres.NewRepositoryStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case "mysql":
		db, err := mysql.Connect(mysql.Options{
			DSN:          cfg.MySQL.DSN,
			MaxOpenConns: cfg.MySQL.MaxOpenConns,
			MaxIdleConns: cfg.MySQL.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			if err := mysql.Migrate(db); err != nil {
				return nil, err
			}
		}
		return mysql.NewRepositoryStore(db), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
