// Package miner implements the mining worker: a search over the nonce space
// of a private block template until its digest meets a difficulty target.
package miner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

var (
	ErrCancelled = errors.New("mining cancelled")
	ErrFinished  = errors.New("worker already finished")
)

type State int

const (
	StateSeeding State = iota
	StateSearching
	StateFound
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Worker searches the nonce space of its own copy of a block template.
// A Worker is run once; its template is released when Run returns.
type Worker struct {
	id         int
	template   *shared.Template
	difficulty uint
	out        transport.Sender

	digest  shared.DigestFunc
	seeds   SeedSource
	observe func(State)
}

// Option configures a Worker.
type Option func(*Worker)

// WithDigest replaces the digest primitive.
func WithDigest(digest shared.DigestFunc) Option {
	return func(w *Worker) {
		w.digest = digest
	}
}

func WithSeedSource(seeds SeedSource) Option {
	return func(w *Worker) {
		w.seeds = seeds
	}
}

// WithStateObserver registers a function called on every state transition,
// from the goroutine running the worker.
func WithStateObserver(observe func(State)) Option {
	return func(w *Worker) {
		w.observe = observe
	}
}

// New creates a worker mining a private copy of content.
// The result is published exactly once on out, which the worker closes when
// it exits.
func New(id int, content []byte, difficulty uint, out transport.Sender, opts ...Option) (*Worker, error) {
	if difficulty > shared.MaxDifficulty {
		return nil, fmt.Errorf("%w: difficulty %d above %d", shared.ErrConfiguration, difficulty, shared.MaxDifficulty)
	}
	template, err := shared.NewTemplate(content)
	if err != nil {
		return nil, err
	}
	w := &Worker{
		id:         id,
		template:   template,
		difficulty: difficulty,
		out:        out,
		digest:     shared.Sha256Hex,
		seeds:      ClockSeeds(),
		observe:    func(State) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Worker) ID() int {
	return w.id
}

// Run searches until a block meeting the difficulty is found and published,
// or until ctx is cancelled. Cancellation is checked once per digest and
// yields an error wrapping both ErrCancelled and ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	if w.template == nil {
		return ErrFinished
	}
	logger := logging.FromContext(ctx).Named("worker").With(zap.Int("worker", w.id))
	defer func() {
		w.template = nil
		if err := w.out.Close(); err != nil {
			logger.Warn("failed to close result channel", zap.Error(err))
		}
	}()

	var hashes uint64
	defer func() { hashesMetric.Add(float64(hashes % hashFlushRate)) }()

	for {
		w.observe(StateSeeding)
		seed := w.seeds.Next() % shared.CounterSpace
		w.template.SetSeed(seed)
		w.template.SetCounter(0)
		seedsMetric.Inc()
		logger.Debug("drew seed", zap.Uint32("seed", seed))

		w.observe(StateSearching)
		for counter := uint32(0); counter < shared.CounterSpace; counter++ {
			select {
			case <-ctx.Done():
				w.observe(StateCancelled)
				logger.Debug("search cancelled", zap.Uint64("hashes", hashes))
				return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			default:
			}

			w.template.SetCounter(counter)
			digest := w.digest(w.template.Bytes())
			if hashes++; hashes%hashFlushRate == 0 {
				hashesMetric.Add(hashFlushRate)
			}

			ok, err := shared.MeetsTarget(digest, w.difficulty)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w.id, err)
			}
			if !ok {
				continue
			}

			w.observe(StateFound)
			blocksMetric.Inc()
			logger.Info(
				"found block",
				zap.Uint32("seed", seed),
				zap.Uint32("counter", counter),
				zap.String("digest", digest),
				zap.Uint64("hashes", hashes),
			)
			// The template bytes become the result; the worker never touches them again.
			block := w.template.Bytes()
			w.template = nil
			if err := w.out.Send(ctx, block); err != nil {
				return fmt.Errorf("publishing result of worker %d: %w", w.id, err)
			}
			return nil
		}
		logger.Debug("counter space exhausted", zap.Uint32("seed", seed))
	}
}
