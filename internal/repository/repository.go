package repository

import (
	"context"
	"errors"

	"casino-miniapp-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate idempotency key")
)

// AccountRepository persists balances. Unknown accounts read as zero.
type AccountRepository interface {
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Insert(ctx context.Context, record *models.TransactionRecord) error
	ListRecent(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error)
}

// TxManager runs fn in one transaction carried by the ctx it passes in.
// Nested calls join the outer transaction.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
	Tx           TxManager

	closer func() error
}

func NewStore(accounts AccountRepository, txs TransactionRepository, tm TxManager, closer func() error) *Store {
	return &Store{
		Accounts:     accounts,
		Transactions: txs,
		Tx:           tm,
		closer:       closer,
	}
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ClampLimit applies the default and maximum page sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
