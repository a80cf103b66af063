package services

import "errors"

var (
	ErrInvalidBet          = errors.New("invalid bet")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrUnauthenticated     = errors.New("not signed in")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLedgerWriteFailure  = errors.New("ledger write failed")
	ErrLedgerReadFailure   = errors.New("ledger read failed")
	ErrIdempotencyConflict = errors.New("idempotency key used by another account")
	ErrSettlementFailure   = errors.New("settlement credit failed")
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundNotActive      = errors.New("round not active")
	ErrRoundSettled        = errors.New("round already settled")
	ErrInvalidMove         = errors.New("invalid move")
	ErrDepositRejected     = errors.New("deposit rejected")
	ErrRateLimited         = errors.New("rate limit exceeded")
)
