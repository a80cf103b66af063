package services

import (
	"context"
	"testing"

	"casino-miniapp-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDepositCreditsOncePerReference(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	svc := NewDepositService(NewSandboxGateway(dec("100")), l, dec("10"), zap.NewNop())

	req := &models.DepositRequest{Amount: dec("5"), Reference: "tx-abc"}
	res, err := svc.Purchase(ctx, "acc-1", req)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(res.TokenAmount))
	assert.True(t, dec("50").Equal(res.Balance))

	res, err = svc.Purchase(ctx, "acc-1", req)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(res.Balance))

	history, err := l.History(ctx, "acc-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypePurchase, history[0].Type)
}

func TestDepositRejections(t *testing.T) {
	ctx := context.Background()
	svc := NewDepositService(NewSandboxGateway(dec("100")), newTestLedger(t), dec("10"), zap.NewNop())

	_, err := svc.Purchase(ctx, "acc-1", &models.DepositRequest{Amount: dec("101"), Reference: "big"})
	assert.ErrorIs(t, err, ErrDepositRejected)

	_, err = svc.Purchase(ctx, "acc-1", &models.DepositRequest{Amount: dec("0"), Reference: "zero"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = svc.Purchase(ctx, "", &models.DepositRequest{Amount: dec("1"), Reference: "anon"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDepositReferenceIsScopedPerAccount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	svc := NewDepositService(NewSandboxGateway(dec("100")), l, dec("10"), zap.NewNop())

	req := &models.DepositRequest{Amount: dec("5"), Reference: "tx-1"}
	_, err := svc.Purchase(ctx, "acc-1", req)
	require.NoError(t, err)

	res, err := svc.Purchase(ctx, "acc-2", req)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(res.TokenAmount))
	assert.True(t, dec("50").Equal(res.Balance))

	for _, id := range []string{"acc-1", "acc-2"} {
		bal, err := l.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.True(t, dec("50").Equal(bal), id)

		history, err := l.History(ctx, id, 0)
		require.NoError(t, err)
		assert.Len(t, history, 1, id)
	}
}
