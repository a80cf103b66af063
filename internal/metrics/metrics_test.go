package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordBetSeparatesPendingSettlements(t *testing.T) {
	accepted := testutil.ToFloat64(betTotal.WithLabelValues("dice", "accepted"))
	pending := testutil.ToFloat64(betTotal.WithLabelValues("dice", "settlement_pending"))

	RecordBet("dice", "settlement_pending")

	assert.Equal(t, accepted, testutil.ToFloat64(betTotal.WithLabelValues("dice", "accepted")))
	assert.Equal(t, pending+1, testutil.ToFloat64(betTotal.WithLabelValues("dice", "settlement_pending")))
}
