package postgres

import (
	"context"
	"fmt"

	"casino-miniapp-backend/internal/repository"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	balance    NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id              TEXT PRIMARY KEY,
	account_id      TEXT NOT NULL,
	type            TEXT NOT NULL,
	game_type       TEXT NOT NULL DEFAULT '',
	round_id        TEXT NOT NULL DEFAULT '',
	amount          NUMERIC(20,2) NOT NULL,
	balance_before  NUMERIC(20,2) NOT NULL,
	balance_after   NUMERIC(20,2) NOT NULL,
	idempotency_key TEXT UNIQUE,
	description     TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS transactions_account_created_idx
	ON transactions (account_id, created_at DESC);
`

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// NewRepositoryStore wires both repositories behind one transaction manager.
func NewRepositoryStore(pool *pgxpool.Pool) (*repository.Store, error) {
	txManager, err := manager.New(trmpgx.NewDefaultFactory(pool))
	if err != nil {
		return nil, fmt.Errorf("failed to create tx manager: %w", err)
	}

	closer := func() error {
		pool.Close()
		return nil
	}
	return repository.NewStore(
		NewAccountRepository(pool),
		NewTransactionRepository(pool),
		txManager,
		closer,
	), nil
}
