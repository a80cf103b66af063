package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestDispatcherDeliversInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, 3, zap.NewNop())

	require.NoError(t, d.Enqueue("a", map[string]int{"n": 1}))
	require.NoError(t, d.Enqueue("b", map[string]int{"n": 2}))
	d.Flush(context.Background())

	assert.Equal(t, []string{"a", "b"}, pub.sent)
}

func TestDispatcherRetriesThenDrops(t *testing.T) {
	pub := &recordingPublisher{failures: 1}
	d := NewDispatcher(pub, 3, zap.NewNop())

	require.NoError(t, d.Enqueue("a", "x"))
	d.Flush(context.Background())
	assert.Empty(t, pub.sent)

	d.Flush(context.Background())
	assert.Equal(t, []string{"a"}, pub.sent)

	pub.failures = 10
	require.NoError(t, d.Enqueue("b", "y"))
	for i := 0; i < 5; i++ {
		d.Flush(context.Background())
	}
	assert.Empty(t, d.retry)
	assert.Equal(t, []string{"a"}, pub.sent)
}

func TestKafkaPublisher(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"ok":true}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "casino.rounds")
	assert.NoError(t, pub.Publish(context.Background(), "round-1", []byte(`{"ok":true}`)))
	assert.ErrorIs(t, pub.Publish(context.Background(), "round-2", []byte(`{}`)), sarama.ErrOutOfBrokers)
	assert.NoError(t, pub.Close())
}
