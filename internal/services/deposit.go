package services

import (
	"context"
	"fmt"

	"casino-miniapp-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DepositGateway confirms an external purchase before tokens are credited.
type DepositGateway interface {
	Purchase(ctx context.Context, accountID string, amount decimal.Decimal, reference string) (bool, error)
}

// SandboxGateway approves every purchase up to limit. A zero limit
// approves everything.
type SandboxGateway struct {
	limit decimal.Decimal
}

func NewSandboxGateway(limit decimal.Decimal) *SandboxGateway {
	return &SandboxGateway{limit: limit}
}

func (g *SandboxGateway) Purchase(_ context.Context, _ string, amount decimal.Decimal, _ string) (bool, error) {
	if g.limit.IsPositive() && amount.GreaterThan(g.limit) {
		return false, nil
	}
	return true, nil
}

type depositLedger interface {
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, opts ...MutationOption) (decimal.Decimal, error)
}

type DepositService struct {
	gateway DepositGateway
	ledger  depositLedger
	rate    decimal.Decimal
	logger  *zap.Logger
}

func NewDepositService(gateway DepositGateway, ledger depositLedger, rate decimal.Decimal, logger *zap.Logger) *DepositService {
	return &DepositService{gateway: gateway, ledger: ledger, rate: rate, logger: logger}
}

// Purchase credits amount times the exchange rate once per reference.
func (s *DepositService) Purchase(ctx context.Context, accountID string, req *models.DepositRequest) (*models.DepositResult, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.gateway.Purchase(ctx, accountID, req.Amount, req.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDepositRejected, err)
	}
	if !ok {
		return nil, ErrDepositRejected
	}

	tokens := req.Amount.Mul(s.rate).Round(2)
	balance, err := s.ledger.Deposit(ctx, accountID, tokens,
		WithIdempotencyKey(depositKey(accountID, req.Reference)),
		WithDescription(fmt.Sprintf("Purchased %s tokens", tokens.StringFixed(2))))
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit credited",
		zap.String("account_id", accountID),
		zap.String("reference", req.Reference),
		zap.String("tokens", tokens.String()))

	return &models.DepositResult{
		Reference:   req.Reference,
		Amount:      req.Amount,
		TokenAmount: tokens,
		Balance:     balance,
	}, nil
}

func depositKey(accountID, reference string) string {
	return "deposit:" + accountID + ":" + reference
}
