package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/tendant/simple-translate-pipeline/pkg/translate"
)

// Transport dispatches task payloads for asynchronous handling. Bounded
// concurrency and retry/backoff policy belong to the transport, not to the
// orchestrator.
type Transport interface {
	Enqueue(ctx context.Context, payload translate.TaskPayload, delay time.Duration) error
}

// Delivery is one enqueued payload with its scheduling delay.
type Delivery struct {
	Payload translate.TaskPayload
	Delay   time.Duration
}

// MemoryTransport is a channel-backed Transport for tests and the standalone
// worker. Deliveries are recorded and exposed on a channel; delays are
// recorded, not slept.
type MemoryTransport struct {
	mu         sync.Mutex
	deliveries []Delivery
	ch         chan Delivery

	// FailFunc, when set, lets tests inject per-payload enqueue errors.
	FailFunc func(translate.TaskPayload) error
}

func NewMemoryTransport(buffer int) *MemoryTransport {
	return &MemoryTransport{ch: make(chan Delivery, buffer)}
}

func (t *MemoryTransport) Enqueue(ctx context.Context, payload translate.TaskPayload, delay time.Duration) error {
	if t.FailFunc != nil {
		if err := t.FailFunc(payload); err != nil {
			return err
		}
	}
	d := Delivery{Payload: payload, Delay: delay}
	t.mu.Lock()
	t.deliveries = append(t.deliveries, d)
	t.mu.Unlock()

	select {
	case t.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliveries returns everything enqueued so far, in order.
func (t *MemoryTransport) Deliveries() []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Delivery, len(t.deliveries))
	copy(out, t.deliveries)
	return out
}

// Chan exposes deliveries for a consumer loop.
func (t *MemoryTransport) Chan() <-chan Delivery {
	return t.ch
}
