// Package transport implements result channels: one-shot, one-directional
// links that carry a worker's result to the coordinator.
package transport

import (
	"context"
	"fmt"

	"github.com/spacemeshos/blockminer/shared"
)

var (
	ErrAlreadySent   = fmt.Errorf("%w: result already sent", shared.ErrChannel)
	ErrClosed        = fmt.Errorf("%w: send on closed channel", shared.ErrChannel)
	ErrNoResult      = fmt.Errorf("%w: channel closed without a result", shared.ErrChannel)
	ErrSizeMismatch  = fmt.Errorf("%w: unexpected result size", shared.ErrChannel)
	ErrFrameTooLarge = fmt.Errorf("%w: frame too large", shared.ErrChannel)
)

// Sender is the write end of a result channel. It is owned by exactly one worker.
type Sender interface {
	// Send transmits the payload. Only the first call may succeed.
	Send(ctx context.Context, payload []byte) error
	// Close releases the write end. Closing without sending tells the
	// reader that no result will come.
	Close() error
}

// Receiver is the read end of a result channel, owned by the coordinator.
type Receiver interface {
	// Receive returns exactly size bytes, or an error wrapping shared.ErrChannel.
	Receive(ctx context.Context, size int) ([]byte, error)
}

func checkSize(payload []byte, size int) ([]byte, error) {
	if len(payload) != size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(payload), size)
	}
	return payload, nil
}
