package transport

import (
	"context"
	"io"
	"sync"
)

// PipeSender writes a single frame to a byte stream, typically the write end
// of an OS pipe inherited by a worker process.
type PipeSender struct {
	w io.WriteCloser

	mu     sync.Mutex
	sent   bool
	closed bool
}

func NewPipeSender(w io.WriteCloser) *PipeSender {
	return &PipeSender{w: w}
}

// Send implements Sender.
func (s *PipeSender) Send(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.sent:
		return ErrAlreadySent
	case s.closed:
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sent = true
	return WriteFrame(s.w, payload)
}

func (s *PipeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

// StreamReceiver drains a single frame from a byte stream in the background,
// starting as soon as it is created, so that a writer never blocks on pipe
// buffering while the reader is busy elsewhere.
type StreamReceiver struct {
	done    chan struct{}
	payload []byte
	err     error
}

// NewStreamReceiver starts draining r. Frames larger than maxSize are rejected.
// r is closed once the frame has been read or the stream failed.
func NewStreamReceiver(r io.ReadCloser, maxSize int) *StreamReceiver {
	s := &StreamReceiver{done: make(chan struct{})}
	go s.drain(r, maxSize)
	return s
}

func (s *StreamReceiver) drain(r io.ReadCloser, maxSize int) {
	defer close(s.done)
	defer r.Close()
	s.payload, s.err = ReadFrame(r, maxSize)
}

// Drained is closed once the stream has been read to the end of the frame or failed.
func (s *StreamReceiver) Drained() <-chan struct{} {
	return s.done
}

// Receive implements Receiver.
func (s *StreamReceiver) Receive(ctx context.Context, size int) ([]byte, error) {
	select {
	case <-s.done:
		if s.err != nil {
			return nil, s.err
		}
		return checkSize(s.payload, size)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
