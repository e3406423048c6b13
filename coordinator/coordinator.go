// Package coordinator runs a mining race: it spawns workers over the same
// content, takes the first verified block, stops every other worker and
// commits the winner.
package coordinator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/miner"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/store"
)

var (
	ErrAllWorkersFailed = errors.New("all workers failed")
	ErrInvalidResult    = fmt.Errorf("%w: invalid result", shared.ErrChannel)
	ErrCancelFailed     = errors.New("failed to cancel worker")
)

// Sink persists the winning block.
type Sink interface {
	Commit(ctx context.Context, block []byte) error
}

// Recorder keeps a record of committed runs.
type Recorder interface {
	Record(ctx context.Context, rec store.Record) error
}

// Result describes a committed run.
type Result struct {
	RunID      string
	Block      []byte
	Digest     string
	Winner     int
	Difficulty uint
	Workers    int
	// Cancelled lists the losers in the order they were cancelled.
	Cancelled []int
	// Failed lists the workers that exited with an error before a winner was known.
	Failed []int
	// RaceDuration is the time from the first spawn until the winner was known.
	RaceDuration time.Duration
	Elapsed      time.Duration
}

type Coordinator struct {
	workers    int
	difficulty uint
	spawner    Spawner
	sink       Sink
	recorder   Recorder
	digest     shared.DigestFunc
}

type Option func(*Coordinator)

// WithWorkers sets the number of competing workers.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		c.workers = n
	}
}

// WithDifficulty sets the required number of leading zero bits.
func WithDifficulty(zeros uint) Option {
	return func(c *Coordinator) {
		c.difficulty = zeros
	}
}

func WithSpawner(spawner Spawner) Option {
	return func(c *Coordinator) {
		c.spawner = spawner
	}
}

func WithSink(sink Sink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// WithDigest sets the digest used to verify the winning block.
// It must match the digest the workers use.
func WithDigest(digest shared.DigestFunc) Option {
	return func(c *Coordinator) {
		c.digest = digest
	}
}

func New(opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		workers: 1,
		digest:  shared.Sha256Hex,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		return nil, fmt.Errorf("%w: at least one worker is required, got %d", shared.ErrConfiguration, c.workers)
	}
	if c.difficulty > shared.MaxDifficulty {
		return nil, fmt.Errorf("%w: difficulty %d above %d", shared.ErrConfiguration, c.difficulty, shared.MaxDifficulty)
	}
	if c.sink == nil {
		return nil, fmt.Errorf("%w: no sink", shared.ErrConfiguration)
	}
	if c.spawner == nil {
		c.spawner = NewInProcessSpawner(miner.WithDigest(c.digest))
	}
	return c, nil
}

type tracked struct {
	Handle
	done chan struct{}
	err  error
}

// Run mines content until one worker found a block meeting the difficulty,
// cancels and awaits all other workers and commits the block to the sink.
// Nothing is committed when Run fails.
func (c *Coordinator) Run(ctx context.Context, content []byte) (*Result, error) {
	if len(content) > shared.MaxContentSize {
		return nil, fmt.Errorf("%w: %d bytes", shared.ErrContentTooLarge, len(content))
	}
	res := &Result{
		RunID:      uuid.NewString(),
		Difficulty: c.difficulty,
		Workers:    c.workers,
	}
	logger := logging.FromContext(ctx).Named("coordinator").With(zap.String("run", res.RunID))
	ctx = logging.NewContext(ctx, logger)
	started := time.Now()

	logger.Info("spawning workers", zap.Int("workers", c.workers), zap.Uint("difficulty", c.difficulty), zap.Int("content", len(content)))
	workers, exits, err := c.spawn(ctx, content)
	if err != nil {
		runsMetric.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	}

	winner, err := c.race(ctx, workers, exits, res)
	if err != nil {
		c.abort(ctx, workers)
		runsMetric.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}
	res.RaceDuration = time.Since(started)
	res.Winner = winner.ID()
	raceDurationMetric.Observe(res.RaceDuration.Seconds())
	logger.Info("worker won the race", zap.Int("worker", res.Winner), zap.Duration("duration", res.RaceDuration))

	res.Block, res.Digest, err = c.collect(ctx, winner, content)
	if err != nil {
		c.abort(ctx, workers)
		runsMetric.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}

	if err := c.cleanup(ctx, workers, winner, res); err != nil {
		c.abort(ctx, workers)
		runsMetric.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	}

	if err := c.sink.Commit(ctx, res.Block); err != nil {
		runsMetric.WithLabelValues(outcomeFailed).Inc()
		return nil, fmt.Errorf("committing block of worker %d: %w", res.Winner, err)
	}
	res.Elapsed = time.Since(started)
	runsMetric.WithLabelValues(outcomeCommitted).Inc()
	logger.Info("committed block", zap.String("digest", res.Digest), zap.Duration("elapsed", res.Elapsed))

	if c.recorder != nil {
		rec := store.Record{
			RunID:        res.RunID,
			Block:        res.Block,
			Digest:       res.Digest,
			Difficulty:   uint32(res.Difficulty),
			Workers:      uint32(res.Workers),
			Winner:       uint32(res.Winner),
			ElapsedNanos: res.Elapsed.Nanoseconds(),
			CommittedAt:  time.Now().UnixNano(),
		}
		// The block is already committed; a ledger failure does not undo the run.
		if err := c.recorder.Record(ctx, rec); err != nil {
			logger.Error("failed to record run", zap.Error(err))
		}
	}
	return res, nil
}

func outcomeFor(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeAborted
	}
	return outcomeFailed
}

// spawn starts all workers in ID order. Every started worker is awaited on
// its own goroutine, which reports termination on the returned stream.
func (c *Coordinator) spawn(ctx context.Context, content []byte) ([]*tracked, <-chan *tracked, error) {
	workers := make([]*tracked, 0, c.workers)
	exits := make(chan *tracked, c.workers)
	for id := 0; id < c.workers; id++ {
		h, err := c.spawner.Spawn(ctx, Spec{ID: id, Content: content, Difficulty: c.difficulty})
		if err != nil {
			c.abort(ctx, workers)
			if !errors.Is(err, shared.ErrSpawn) {
				err = fmt.Errorf("%w: %w", shared.ErrSpawn, err)
			}
			return nil, nil, fmt.Errorf("spawning worker %d: %w", id, err)
		}
		w := &tracked{Handle: h, done: make(chan struct{})}
		go func() {
			w.err = w.Wait()
			close(w.done)
			exits <- w
		}()
		workers = append(workers, w)
	}
	return workers, exits, nil
}

// race returns the first worker observed to have published its result.
func (c *Coordinator) race(ctx context.Context, workers []*tracked, exits <-chan *tracked, res *Result) (*tracked, error) {
	logger := logging.FromContext(ctx)
	remaining := len(workers)
	for {
		select {
		case w := <-exits:
			if w.err == nil {
				return w, nil
			}
			logger.Warn("worker failed before a winner was known", zap.Int("worker", w.ID()), zap.Error(w.err))
			workerFailuresMetric.Inc()
			res.Failed = append(res.Failed, w.ID())
			if remaining--; remaining == 0 {
				slices.Sort(res.Failed)
				return nil, fmt.Errorf("%w: %d workers, last error: %w", ErrAllWorkersFailed, len(workers), w.err)
			}
		case <-ctx.Done():
			logger.Info("run cancelled while racing")
			return nil, ctx.Err()
		}
	}
}

// collect reads the winner's block and checks it against the content and
// the difficulty.
func (c *Coordinator) collect(ctx context.Context, winner *tracked, content []byte) ([]byte, string, error) {
	block, err := winner.Receiver().Receive(ctx, shared.TemplateSize(len(content)))
	if err != nil {
		return nil, "", fmt.Errorf("collecting result of worker %d: %w", winner.ID(), err)
	}
	if !bytes.Equal(block[:len(content)], content) {
		return nil, "", fmt.Errorf("%w: worker %d altered the content", ErrInvalidResult, winner.ID())
	}
	if _, err := shared.DecodeDigits(block, len(content)); err != nil {
		return nil, "", fmt.Errorf("%w: worker %d: %w", ErrInvalidResult, winner.ID(), err)
	}
	if _, err := shared.DecodeDigits(block, len(content)+shared.SubfieldWidth); err != nil {
		return nil, "", fmt.Errorf("%w: worker %d: %w", ErrInvalidResult, winner.ID(), err)
	}
	digest := c.digest(block)
	ok, err := shared.MeetsTarget(digest, c.difficulty)
	if err != nil {
		return nil, "", fmt.Errorf("verifying result of worker %d: %w", winner.ID(), err)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: digest %s of worker %d misses difficulty %d", ErrInvalidResult, digest, winner.ID(), c.difficulty)
	}
	return block, digest, nil
}

// cleanup cancels the losers one at a time in ID order, waiting for each to
// terminate before moving on.
func (c *Coordinator) cleanup(ctx context.Context, workers []*tracked, winner *tracked, res *Result) error {
	logger := logging.FromContext(ctx)
	for _, w := range workers {
		if w == winner {
			continue
		}
		if err := w.Cancel(); err != nil {
			return fmt.Errorf("%w %d: %w", ErrCancelFailed, w.ID(), err)
		}
		<-w.done
		logger.Debug("worker terminated", zap.Int("worker", w.ID()), zap.NamedError("exit", w.err))
		res.Cancelled = append(res.Cancelled, w.ID())
	}
	return nil
}

// abort cancels all workers and waits until every one of them terminated.
func (c *Coordinator) abort(ctx context.Context, workers []*tracked) {
	logger := logging.FromContext(ctx)
	for _, w := range workers {
		if err := w.Cancel(); err != nil {
			logger.Warn("failed to cancel worker", zap.Int("worker", w.ID()), zap.Error(err))
		}
	}
	for _, w := range workers {
		<-w.done
	}
}
