package coordinator

import (
	"context"
	"fmt"

	"github.com/spacemeshos/blockminer/miner"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

// Spec describes the worker to be spawned.
type Spec struct {
	ID         int
	Content    []byte
	Difficulty uint
}

// Handle is the coordinator's side of a running worker.
type Handle interface {
	ID() int
	// Receiver is the read end of the worker's private result channel.
	Receiver() transport.Receiver
	// Wait blocks until the worker terminated. It returns nil only if the
	// worker published its result. Wait is called once.
	Wait() error
	// Cancel asks the worker to stop and returns without waiting.
	Cancel() error
}

//go:generate mockgen -package mocks -destination mocks/coordinator.go . Recorder,Sink,Spawner

// Spawner starts workers.
type Spawner interface {
	Spawn(ctx context.Context, spec Spec) (Handle, error)
}

// InProcessSpawner runs every worker on its own goroutine over an in-memory channel.
type InProcessSpawner struct {
	opts []miner.Option
}

func NewInProcessSpawner(opts ...miner.Option) *InProcessSpawner {
	return &InProcessSpawner{opts: opts}
}

func (s *InProcessSpawner) Spawn(ctx context.Context, spec Spec) (Handle, error) {
	ch := transport.NewInMemory()
	w, err := miner.New(spec.ID, spec.Content, spec.Difficulty, ch, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: worker %d: %w", shared.ErrSpawn, spec.ID, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &goroutineHandle{
		id:     spec.ID,
		ch:     ch,
		cancel: cancel,
		exit:   make(chan error, 1),
	}
	go func() {
		defer cancel()
		h.exit <- w.Run(ctx)
	}()
	return h, nil
}

type goroutineHandle struct {
	id     int
	ch     *transport.InMemory
	cancel context.CancelFunc
	exit   chan error
}

func (h *goroutineHandle) ID() int {
	return h.id
}

func (h *goroutineHandle) Receiver() transport.Receiver {
	return h.ch
}

func (h *goroutineHandle) Wait() error {
	return <-h.exit
}

func (h *goroutineHandle) Cancel() error {
	h.cancel()
	return nil
}
