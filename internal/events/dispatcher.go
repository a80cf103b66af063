package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("event queue full")

type message struct {
	key        string
	payload    []byte
	retryCount int
}

// Dispatcher buffers events and flushes them to a Publisher on a ticker.
// Failed sends are retried until maxRetries, then dropped.
type Dispatcher struct {
	publisher  Publisher
	queue      chan *message
	retry      []*message
	interval   time.Duration
	batchSize  int
	maxRetries int
	logger     *zap.Logger
	stopCh     chan struct{}
}

func NewDispatcher(publisher Publisher, maxRetries int, logger *zap.Logger) *Dispatcher {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Dispatcher{
		publisher:  publisher,
		queue:      make(chan *message, 1024),
		interval:   100 * time.Millisecond,
		batchSize:  100,
		maxRetries: maxRetries,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Enqueue encodes v as JSON and queues it without blocking.
func (d *Dispatcher) Enqueue(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	select {
	case d.queue <- &message{key: key, payload: payload}:
		return nil
	default:
		d.logger.Warn("event dropped, queue full", zap.String("key", key))
		return ErrQueueFull
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("event dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Flush(context.Background())
			d.logger.Info("event dispatcher stopped")
			return
		case <-d.stopCh:
			d.Flush(context.Background())
			d.logger.Info("event dispatcher stopped")
			return
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
}

// Flush sends queued and retrying events once.
func (d *Dispatcher) Flush(ctx context.Context) {
	batch := d.retry
	d.retry = nil

drain:
	for len(batch) < d.batchSize {
		select {
		case msg := <-d.queue:
			batch = append(batch, msg)
		default:
			break drain
		}
	}

	for _, msg := range batch {
		d.send(ctx, msg)
	}
}

func (d *Dispatcher) send(ctx context.Context, msg *message) {
	err := d.publisher.Publish(ctx, msg.key, msg.payload)
	if err == nil {
		return
	}

	msg.retryCount++
	if msg.retryCount >= d.maxRetries {
		d.logger.Error("event dropped after retries",
			zap.String("key", msg.key),
			zap.Int("retries", msg.retryCount),
			zap.Error(err))
		return
	}

	d.logger.Warn("event send failed", zap.String("key", msg.key), zap.Error(err))
	d.retry = append(d.retry, msg)
}
