package services

const (
	KeyLedgerLock = "ledger:lock:%s"
	KeyRateLimit  = "ratelimit:%s:%s"

	DefaultRateLimitBets    = 30
	DefaultRateLimitActions = 120
)
