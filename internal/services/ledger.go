package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino-miniapp-backend/internal/metrics"
	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the only path that changes a balance.
type Ledger interface {
	Spend(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

type mutation struct {
	gameType    models.GameType
	roundID     string
	key         string
	description string
}

type MutationOption func(*mutation)

func WithGame(gameType models.GameType, roundID string) MutationOption {
	return func(m *mutation) {
		m.gameType = gameType
		m.roundID = roundID
	}
}

// WithIdempotencyKey makes a repeated mutation with the same key a no-op.
func WithIdempotencyKey(key string) MutationOption {
	return func(m *mutation) { m.key = key }
}

func WithDescription(description string) MutationOption {
	return func(m *mutation) { m.description = description }
}

type LedgerService struct {
	store  *repository.Store
	locker AccountLocker
	cache  *BalanceCache
	logger *zap.Logger
	now    func() time.Time
}

func NewLedgerService(store *repository.Store, locker AccountLocker, cache *BalanceCache, logger *zap.Logger) *LedgerService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		store:  store,
		locker: locker,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Spend debits amount and fails with ErrInsufficientBalance rather than
// letting the balance go negative.
func (l *LedgerService) Spend(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return l.apply(ctx, accountID, models.TransactionTypeGameSpend, amount, opts)
}

// Credit adds a game win. A zero credit writes nothing.
func (l *LedgerService) Credit(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.IsZero() {
		return l.GetBalance(ctx, accountID)
	}
	return l.apply(ctx, accountID, models.TransactionTypeGameWin, amount, opts)
}

// Deposit records a purchase of tokens.
func (l *LedgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return l.apply(ctx, accountID, models.TransactionTypePurchase, amount, opts)
}

func (l *LedgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if accountID == "" {
		return decimal.Zero, ErrUnauthenticated
	}

	balance, err := l.store.Accounts.GetBalance(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrLedgerReadFailure, err)
	}
	l.cache.Set(accountID, balance)
	return balance, nil
}

// DisplayBalance may be up to the cache TTL stale.
func (l *LedgerService) DisplayBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if balance, ok := l.cache.Get(accountID); ok {
		return balance, nil
	}
	return l.GetBalance(ctx, accountID)
}

// History lists the newest records first.
func (l *LedgerService) History(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}

	records, err := l.store.Transactions.ListRecent(ctx, accountID, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return records, nil
}

func (l *LedgerService) apply(ctx context.Context, accountID string, txType models.TransactionType, amount decimal.Decimal, opts []MutationOption) (decimal.Decimal, error) {
	if accountID == "" {
		return decimal.Zero, ErrUnauthenticated
	}

	var m mutation
	for _, opt := range opts {
		opt(&m)
	}

	started := l.now()
	balance, err := l.mutate(ctx, accountID, txType, amount, m)
	switch {
	case err == nil:
		metrics.RecordLedgerOp(string(txType), "ok", started)
		l.cache.Set(accountID, balance)
		return balance, nil
	case errors.Is(err, ErrInsufficientBalance):
		metrics.RecordLedgerOp(string(txType), "insufficient", started)
		return decimal.Zero, err
	case errors.Is(err, ErrIdempotencyConflict):
		metrics.RecordLedgerOp(string(txType), "conflict", started)
		l.logger.Warn("idempotency key owned by another account",
			zap.String("account_id", accountID),
			zap.String("idempotency_key", m.key))
		return decimal.Zero, err
	default:
		metrics.RecordLedgerOp(string(txType), "error", started)
		l.cache.Invalidate(accountID)
		l.logger.Error("ledger mutation failed",
			zap.String("account_id", accountID),
			zap.String("type", string(txType)),
			zap.String("amount", amount.String()),
			zap.String("idempotency_key", m.key),
			zap.Error(err))
		if errors.Is(err, ErrLedgerWriteFailure) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %w", ErrLedgerWriteFailure, err)
	}
}

func (l *LedgerService) mutate(ctx context.Context, accountID string, txType models.TransactionType, amount decimal.Decimal, m mutation) (decimal.Decimal, error) {
	unlock, err := l.locker.Lock(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	defer unlock()

	var balance decimal.Decimal
	err = l.store.Tx.Do(ctx, func(ctx context.Context) error {
		if m.key != "" {
			prev, err := l.store.Transactions.FindByIdempotencyKey(ctx, m.key)
			switch {
			case err == nil:
				if prev.AccountID != accountID {
					return ErrIdempotencyConflict
				}
				l.logger.Info("ledger mutation replayed",
					zap.String("account_id", accountID),
					zap.String("idempotency_key", m.key),
					zap.String("record_id", prev.ID))
				balance, err = l.store.Accounts.GetBalance(ctx, accountID)
				return err
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}
		}

		before, err := l.store.Accounts.GetBalance(ctx, accountID)
		if err != nil {
			return err
		}

		rec := &models.TransactionRecord{
			ID:             models.NewTransactionID(),
			AccountID:      accountID,
			Type:           txType,
			GameType:       m.gameType,
			RoundID:        m.roundID,
			Amount:         amount,
			BalanceBefore:  before,
			IdempotencyKey: m.key,
			Description:    m.description,
			CreatedAt:      l.now(),
		}

		after := before.Add(rec.Delta())
		if after.IsNegative() {
			return ErrInsufficientBalance
		}
		rec.BalanceAfter = after

		if balance, err = l.store.Accounts.SetBalance(ctx, accountID, after); err != nil {
			return err
		}
		return l.store.Transactions.Insert(ctx, rec)
	})

	if errors.Is(err, repository.ErrDuplicateKey) {
		// Another writer committed the same key between our lookup and commit.
		return l.store.Accounts.GetBalance(ctx, accountID)
	}
	return balance, err
}
