package app_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/blockminer/app"
	"github.com/spacemeshos/blockminer/config"
	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
)

func testConfig(t *testing.T, content string, zeros, workers int) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Args = config.Arguments{
		Input:   filepath.Join(dir, "input.txt"),
		Output:  filepath.Join(dir, "output.txt"),
		Zeros:   zeros,
		Workers: workers,
	}
	require.NoError(t, os.WriteFile(cfg.Args.Input, []byte(content), 0o600))
	return cfg
}

func TestRunCommitsBlock(t *testing.T) {
	t.Parallel()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	cfg := testConfig(t, "hello\n", 8, 3)
	cfg.LedgerDir = filepath.Join(t.TempDir(), "ledger")

	a, err := app.New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.Nil(t, a.MetricsAddr())

	res, err := a.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Cancelled, 2)

	block, err := os.ReadFile(cfg.Args.Output)
	require.NoError(t, err)
	require.Len(t, block, shared.TemplateSize(5))
	require.Equal(t, "hello", string(block[:5]))
	require.Equal(t, res.Block, block)

	rec, err := a.Ledger().Get(ctx, res.RunID)
	require.NoError(t, err)
	require.Equal(t, block, rec.Block)
	require.Equal(t, res.Digest, rec.Digest)
	require.EqualValues(t, 3, rec.Workers)
}

func TestRunServesMetricsUntilCancelled(t *testing.T) {
	t.Parallel()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	cfg := testConfig(t, "hello", shared.MaxDifficulty, 2)
	port := uint16(0)
	cfg.MetricsPort = &port

	a, err := app.New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.MetricsAddr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx)
		errc <- err
	}()

	port = uint16(a.MetricsAddr().(*net.TCPAddr).Port)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), "blockminer_worker_hashes_total")

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	_, err = os.Stat(cfg.Args.Output)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	cfg := testConfig(t, "hello", 257, 4)

	_, err := app.New(ctx, cfg)
	require.ErrorIs(t, err, shared.ErrConfiguration)
	_, err = os.Stat(cfg.Args.Output)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewMissingInput(t *testing.T) {
	t.Parallel()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	cfg := testConfig(t, "hello", 1, 1)
	require.NoError(t, os.Remove(cfg.Args.Input))

	_, err := app.New(ctx, cfg)
	require.ErrorIs(t, err, shared.ErrIO)
}
