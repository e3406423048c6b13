package hasher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/blockminer/hasher"
	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/miner"
	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()
	cfg, err := hasher.ParseArgs([]string{"--input", "in.txt", "--fd", "4", "--zeros", "12", "--id", "2"})
	require.NoError(t, err)
	require.Equal(t, &hasher.Config{Input: "in.txt", FD: 4, Zeros: 12, ID: 2}, cfg)

	cfg, err = hasher.ParseArgs([]string{"--input", "in.txt", "--zeros", "0"})
	require.NoError(t, err)
	require.EqualValues(t, 3, cfg.FD)
}

func TestParseArgsRejectsInvalidArguments(t *testing.T) {
	t.Parallel()
	for name, args := range map[string][]string{
		"missing input":   {"--zeros", "8"},
		"missing zeros":   {"--input", "in.txt"},
		"too many zeros":  {"--input", "in.txt", "--zeros", "257"},
		"standard stream": {"--input", "in.txt", "--zeros", "8", "--fd", "1"},
		"positional":      {"--input", "in.txt", "--zeros", "8", "extra"},
	} {
		args := args
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := hasher.ParseArgs(args)
			require.ErrorIs(t, err, shared.ErrConfiguration)
		})
	}
}

func TestParseArgsReportedErrors(t *testing.T) {
	t.Parallel()
	// Flag errors were printed by the parser; only the rest are left to the caller.
	_, err := hasher.ParseArgs([]string{"--input", "in.txt", "--zeros", "many"})
	require.True(t, hasher.Reported(err))

	_, err = hasher.ParseArgs([]string{"--help"})
	require.True(t, hasher.Reported(err))

	_, err = hasher.ParseArgs([]string{"--input", "in.txt", "--zeros", "257"})
	require.ErrorIs(t, err, shared.ErrConfiguration)
	require.False(t, hasher.Reported(err))
}

func writeInput(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunPublishesFrame(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	recv := transport.NewStreamReceiver(r, shared.TemplateSize(5))

	cfg := &hasher.Config{Input: writeInput(t, "hel\nlo\n"), Zeros: 8}
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	require.NoError(t, hasher.Run(ctx, cfg, transport.NewPipeSender(w)))

	block, err := recv.Receive(context.Background(), shared.TemplateSize(5))
	require.NoError(t, err)
	require.Equal(t, "hello", string(block[:5]))
	ok, err := shared.MeetsTarget(shared.Sha256Hex(block), 8)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	recv := transport.NewStreamReceiver(r, shared.TemplateSize(5))

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), zaptest.NewLogger(t)))
	cancel()
	cfg := &hasher.Config{Input: writeInput(t, "hello"), Zeros: shared.MaxDifficulty}
	require.ErrorIs(t, hasher.Run(ctx, cfg, transport.NewPipeSender(w)), miner.ErrCancelled)

	_, err = recv.Receive(context.Background(), shared.TemplateSize(5))
	require.ErrorIs(t, err, transport.ErrNoResult)
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	recv := transport.NewStreamReceiver(r, shared.TemplateSize(0))

	cfg := &hasher.Config{Input: filepath.Join(t.TempDir(), "missing.txt"), Zeros: 1}
	require.ErrorIs(t, hasher.Run(context.Background(), cfg, transport.NewPipeSender(w)), shared.ErrIO)

	_, err = recv.Receive(context.Background(), shared.TemplateSize(0))
	require.ErrorIs(t, err, transport.ErrNoResult)
}
