// Package hasher is the worker side of a mining race run with worker
// processes: it mines the content of a file and writes the block as a single
// frame to an inherited file descriptor.
package hasher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/blockio"
	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/miner"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

type Config struct {
	Input    string `long:"input" description:"Path of the block content" required:"true"`
	FD       uint   `long:"fd" description:"File descriptor of the result channel" default:"3"`
	Zeros    int    `long:"zeros" description:"Required number of leading zero bits" required:"true"`
	ID       int    `long:"id" description:"Worker identity used in logs"`
	DebugLog bool   `long:"debuglog" description:"Enable debug logging"`
	JSONLog  bool   `long:"jsonlog" description:"Log in JSON format"`
}

// ParseArgs parses the worker flags. Positional arguments are rejected.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}
	rest, err := flags.NewParser(cfg, flags.Default).ParseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrConfiguration, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %q", shared.ErrConfiguration, rest)
	}
	if err := shared.ValidateDifficulty(cfg.Zeros); err != nil {
		return nil, err
	}
	if cfg.FD < 3 {
		return nil, fmt.Errorf("%w: fd %d is a standard stream", shared.ErrConfiguration, cfg.FD)
	}
	cfg.Input = filepath.Clean(cfg.Input)
	return cfg, nil
}

// Run mines the content at cfg.Input and publishes the block on out, which
// it closes. It returns an error wrapping miner.ErrCancelled when ctx is
// cancelled first.
func Run(ctx context.Context, cfg *Config, out transport.Sender) error {
	content, err := blockio.ReadContent(cfg.Input)
	if err != nil {
		out.Close()
		return err
	}
	w, err := miner.New(cfg.ID, content, uint(cfg.Zeros), out)
	if err != nil {
		out.Close()
		return err
	}
	return w.Run(ctx)
}

// Main parses args, sets up logging and runs the worker.
func Main(ctx context.Context, args []string) error {
	cfg, err := ParseArgs(args)
	if err != nil {
		return err
	}
	level := zap.InfoLevel
	if cfg.DebugLog {
		level = zap.DebugLevel
	}
	logger := logging.New(level, logging.FileConfig{}, cfg.JSONLog).Named("hasher")
	defer func() { _ = logger.Sync() }()
	ctx = logging.NewContext(ctx, logger)

	f := os.NewFile(uintptr(cfg.FD), "result-channel")
	if f == nil {
		return fmt.Errorf("%w: invalid fd %d", shared.ErrChannel, cfg.FD)
	}
	err = Run(ctx, cfg, transport.NewPipeSender(f))
	switch {
	case err == nil:
		logger.Debug("published block", zap.Int("worker", cfg.ID))
	case errors.Is(err, miner.ErrCancelled):
		logger.Debug("interrupted", zap.Int("worker", cfg.ID))
	}
	return err
}

// Reported reports whether err was already printed by the flags parser,
// a usage message included.
func Reported(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr)
}
