package services

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceCache serves display balances. Settlement never reads from it.
type BalanceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedBalance
	now     func() time.Time
}

type cachedBalance struct {
	balance   decimal.Decimal
	expiresAt time.Time
}

func NewBalanceCache(ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		ttl:     ttl,
		entries: make(map[string]cachedBalance),
		now:     time.Now,
	}
}

func (c *BalanceCache) Get(accountID string) (decimal.Decimal, bool) {
	if c == nil || c.ttl <= 0 {
		return decimal.Zero, false
	}

	c.mu.RLock()
	e, ok := c.entries[accountID]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return decimal.Zero, false
	}
	return e.balance, true
}

func (c *BalanceCache) Set(accountID string, balance decimal.Decimal) {
	if c == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[accountID] = cachedBalance{balance: balance, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *BalanceCache) Invalidate(accountID string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	delete(c.entries, accountID)
	c.mu.Unlock()
}
