package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Store keeps balances as decimal strings and transactions as JSON,
// indexed per account in a sorted set. Writes inside Do are queued on a
// MULTI/EXEC pipeline.
type Store struct {
	client *redis.Client
}

type txKey struct{}

type pending struct {
	pipe     redis.Pipeliner
	balances map[string]decimal.Decimal
	records  []*models.TransactionRecord
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func NewRepositoryStore(client *redis.Client) *repository.Store {
	s := New(client)
	return repository.NewStore(s, s, s, client.Close)
}

func txFrom(ctx context.Context) *pending {
	p, _ := ctx.Value(txKey{}).(*pending)
	return p
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	p := &pending{
		pipe:     s.client.TxPipeline(),
		balances: make(map[string]decimal.Decimal),
	}
	if err := fn(context.WithValue(ctx, txKey{}, p)); err != nil {
		p.pipe.Discard()
		return err
	}
	if p.pipe.Len() == 0 {
		return nil
	}
	if _, err := p.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit redis transaction: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if p := txFrom(ctx); p != nil {
		if bal, ok := p.balances[accountID]; ok {
			return bal, nil
		}
	}

	data, err := s.client.Get(ctx, fmt.Sprintf(KeyWalletBalance, accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	bal, err := decimal.NewFromString(data)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for %s: %w", accountID, err)
	}
	return bal, nil
}

func (s *Store) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) (decimal.Decimal, error) {
	key := fmt.Sprintf(KeyWalletBalance, accountID)

	if p := txFrom(ctx); p != nil {
		p.pipe.Set(ctx, key, balance.String(), 0)
		p.balances[accountID] = balance
		return balance, nil
	}

	if err := s.client.Set(ctx, key, balance.String(), 0).Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to set balance: %w", err)
	}
	return balance, nil
}

func (s *Store) Insert(ctx context.Context, record *models.TransactionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	p := txFrom(ctx)
	if p == nil {
		if record.IdempotencyKey != "" {
			ok, err := s.client.SetNX(ctx, fmt.Sprintf(KeyIdempotency, record.IdempotencyKey), record.ID, 0).Result()
			if err != nil {
				return fmt.Errorf("failed to reserve idempotency key: %w", err)
			}
			if !ok {
				return repository.ErrDuplicateKey
			}
		}
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueInsert(ctx, pipe, record, data)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		return nil
	}

	if record.IdempotencyKey != "" {
		for _, r := range p.records {
			if r.IdempotencyKey == record.IdempotencyKey {
				return repository.ErrDuplicateKey
			}
		}
		p.pipe.Set(ctx, fmt.Sprintf(KeyIdempotency, record.IdempotencyKey), record.ID, 0)
	}
	queueInsert(ctx, p.pipe, record, data)
	rec := *record
	p.records = append(p.records, &rec)
	return nil
}

func queueInsert(ctx context.Context, pipe redis.Pipeliner, record *models.TransactionRecord, data []byte) {
	pipe.Set(ctx, fmt.Sprintf(KeyTransaction, record.ID), data, 0)
	pipe.ZAdd(ctx, fmt.Sprintf(KeyAccountTransactions, record.AccountID), redis.Z{
		Score:  float64(record.CreatedAt.UnixMicro()),
		Member: record.ID,
	})
}

func (s *Store) ListRecent(ctx context.Context, accountID string, limit int) ([]*models.TransactionRecord, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyAccountTransactions, accountID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction ids: %w", err)
	}
	if len(ids) == 0 {
		return []*models.TransactionRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyTransaction, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	records := make([]*models.TransactionRecord, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		var rec models.TransactionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	if p := txFrom(ctx); p != nil {
		for _, r := range p.records {
			if r.IdempotencyKey == key {
				rec := *r
				return &rec, nil
			}
		}
	}

	id, err := s.client.Get(ctx, fmt.Sprintf(KeyIdempotency, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransaction, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var rec models.TransactionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &rec, nil
}
