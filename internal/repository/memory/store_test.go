package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/repository"
	"casino-miniapp-backend/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(account, key string, at time.Time) *models.TransactionRecord {
	return &models.TransactionRecord{
		ID:             models.NewTransactionID(),
		AccountID:      account,
		Type:           models.TransactionTypePurchase,
		Amount:         decimal.NewFromInt(10),
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

func TestUnknownAccountReadsZero(t *testing.T) {
	s := memory.New()
	bal, err := s.GetBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestDoCommitsOnSuccess(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.Do(ctx, func(ctx context.Context) error {
		_, err := s.SetBalance(ctx, "acc", decimal.NewFromInt(50))
		require.NoError(t, err)

		bal, err := s.GetBalance(ctx, "acc")
		require.NoError(t, err)
		assert.Equal(t, "50", bal.String())

		return s.Insert(ctx, record("acc", "k1", time.Now()))
	})
	require.NoError(t, err)

	bal, _ := s.GetBalance(ctx, "acc")
	assert.Equal(t, "50", bal.String())

	rec, err := s.FindByIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "acc", rec.AccountID)
}

func TestDoDiscardsOnError(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Do(ctx, func(ctx context.Context) error {
		_, _ = s.SetBalance(ctx, "acc", decimal.NewFromInt(50))
		_ = s.Insert(ctx, record("acc", "k1", time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, _ := s.GetBalance(ctx, "acc")
	assert.True(t, bal.IsZero())

	_, err = s.FindByIdempotencyKey(ctx, "k1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInsertRejectsDuplicateKey(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, record("acc", "k1", time.Now())))
	assert.ErrorIs(t, s.Insert(ctx, record("acc", "k1", time.Now())), repository.ErrDuplicateKey)

	err := s.Do(ctx, func(ctx context.Context) error {
		return s.Insert(ctx, record("acc", "k1", time.Now()))
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestListRecentNewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Insert(ctx, record("acc", "", base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, s.Insert(ctx, record("other", "", base)))

	recs, err := s.ListRecent(ctx, "acc", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].CreatedAt.After(recs[1].CreatedAt))
	assert.True(t, recs[1].CreatedAt.After(recs[2].CreatedAt))

	recs[0].Amount = decimal.NewFromInt(999)
	again, _ := s.ListRecent(ctx, "acc", 1)
	assert.Equal(t, "10", again[0].Amount.String(), "records are immutable")
}
