// Package memory is an in-process store used by tests and local runs.
// Writes made inside Do are staged on the context and applied on commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	records  map[string][]*models.TransactionRecord
	byKey    map[string]*models.TransactionRecord
}

type txKey struct{}

type staged struct {
	balances map[string]decimal.Decimal
	records  []*models.TransactionRecord
}

func New() *Store {
	return &Store{
		balances: make(map[string]decimal.Decimal),
		records:  make(map[string][]*models.TransactionRecord),
		byKey:    make(map[string]*models.TransactionRecord),
	}
}

// NewRepositoryStore wraps s as a repository.Store.
func NewRepositoryStore(s *Store) *repository.Store {
	return repository.NewStore(s, s, s, nil)
}

func txFrom(ctx context.Context) *staged {
	tx, _ := ctx.Value(txKey{}).(*staged)
	return tx
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &staged{balances: make(map[string]decimal.Decimal)}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range tx.records {
		if rec.IdempotencyKey == "" {
			continue
		}
		if _, exists := s.byKey[rec.IdempotencyKey]; exists {
			return repository.ErrDuplicateKey
		}
	}
	for id, bal := range tx.balances {
		s.balances[id] = bal
	}
	for _, rec := range tx.records {
		s.appendLocked(rec)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if tx := txFrom(ctx); tx != nil {
		if bal, ok := tx.balances[accountID]; ok {
			return bal, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[accountID], nil
}

func (s *Store) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (decimal.Decimal, error) {
	if tx := txFrom(ctx); tx != nil {
		tx.balances[accountID] = balance
		return balance, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] = balance
	return balance, nil
}

func (s *Store) Insert(ctx context.Context, record *models.TransactionRecord) error {
	rec := *record

	if tx := txFrom(ctx); tx != nil {
		if rec.IdempotencyKey != "" {
			for _, r := range tx.records {
				if r.IdempotencyKey == rec.IdempotencyKey {
					return repository.ErrDuplicateKey
				}
			}
		}
		tx.records = append(tx.records, &rec)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.IdempotencyKey != "" {
		if _, exists := s.byKey[rec.IdempotencyKey]; exists {
			return repository.ErrDuplicateKey
		}
	}
	s.appendLocked(&rec)
	return nil
}

func (s *Store) appendLocked(rec *models.TransactionRecord) {
	s.records[rec.AccountID] = append(s.records[rec.AccountID], rec)
	if rec.IdempotencyKey != "" {
		s.byKey[rec.IdempotencyKey] = rec
	}
}

// ListRecent returns copies, newest first.
func (s *Store) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[accountID]
	out := make([]*models.TransactionRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		rec := *all[i]
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	if tx := txFrom(ctx); tx != nil {
		for _, r := range tx.records {
			if r.IdempotencyKey == key {
				rec := *r
				return &rec, nil
			}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byKey[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *rec
	return &out, nil
}
