package transport

import (
	"context"
	"sync"
)

// InMemory is an in-memory result channel. It links a worker goroutine with
// the coordinator. The channel has room for exactly one result, so Send
// never blocks.
type InMemory struct {
	results chan []byte

	mu     sync.Mutex
	sent   bool
	closed bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		results: make(chan []byte, 1),
	}
}

// Send implements Sender. Ownership of payload passes to the receiver.
func (m *InMemory) Send(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.sent:
		return ErrAlreadySent
	case m.closed:
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sent = true
	m.results <- payload
	return nil
}

func (m *InMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.results)
	}
	return nil
}

// Receive implements Receiver.
func (m *InMemory) Receive(ctx context.Context, size int) ([]byte, error) {
	select {
	case payload, ok := <-m.results:
		if !ok {
			return nil, ErrNoResult
		}
		return checkSize(payload, size)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
