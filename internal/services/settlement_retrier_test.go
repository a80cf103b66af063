package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubRetrier struct {
	pending int
	calls   int
}

func (s *stubRetrier) RetryPendingSettlements(context.Context) int {
	s.calls++
	resolved := s.pending
	s.pending = 0
	return resolved
}

func (s *stubRetrier) PendingSettlements() int { return s.pending }

func TestSettlementRetrierSkipsWhenIdle(t *testing.T) {
	stub := &stubRetrier{}
	r := NewSettlementRetrier(stub, 0, zap.NewNop())

	r.runOnce(context.Background())
	assert.Equal(t, 0, stub.calls)

	stub.pending = 2
	r.runOnce(context.Background())
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 0, stub.pending)
}
