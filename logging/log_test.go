package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/blockminer/logging"
)

func TestContextCarriesLogger(t *testing.T) {
	t.Parallel()
	logger := zaptest.NewLogger(t)
	ctx := logging.NewContext(context.Background(), logger)
	require.Same(t, logger, logging.FromContext(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()
	require.NotNil(t, logging.FromContext(context.Background()))
}

func TestLogToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "blockminer.log")

	logger := logging.New(zap.InfoLevel, logging.FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1}, true)
	logger.Debug("debug lines still reach the file")
	logger.Info("block committed", zap.String("digest", "00fb13"))
	_ = logger.Sync() // stderr cannot be synced when it is a pipe

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "block committed")
	require.Contains(t, string(data), "debug lines still reach the file")
	require.Contains(t, string(data), `"digest":"00fb13"`)
}
