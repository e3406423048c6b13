package blockio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/blockminer/blockio"
	"github.com/spacemeshos/blockminer/shared"
)

func TestReadContentStripsLayout(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("hel\r\nlo\t wor\nld\n"), 0o600))

	content, err := blockio.ReadContent(path)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))
}

func TestReadContentEmptyFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o600))

	content, err := blockio.ReadContent(path)
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestReadContentMissingFile(t *testing.T) {
	t.Parallel()
	_, err := blockio.ReadContent(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, shared.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadContentTooLarge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	fits := make([]byte, shared.MaxContentSize+2)
	for i := range fits {
		fits[i] = 'a'
	}
	// Layout bytes do not count.
	fits[0], fits[1] = '\n', '\t'
	path := filepath.Join(dir, "fits.txt")
	require.NoError(t, os.WriteFile(path, fits, 0o600))
	content, err := blockio.ReadContent(path)
	require.NoError(t, err)
	require.Len(t, content, shared.MaxContentSize)

	path = filepath.Join(dir, "large.txt")
	require.NoError(t, os.WriteFile(path, make([]byte, shared.MaxContentSize+1), 0o600))
	_, err = blockio.ReadContent(path)
	require.ErrorIs(t, err, shared.ErrContentTooLarge)
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestFileSinkOverwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous and much longer contents"), 0o600))

	sink := blockio.FileSink{Path: path}
	require.NoError(t, sink.Commit(context.Background(), []byte("hello482913000672")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello482913000672", string(data))
}

func TestFileSinkMissingDirectory(t *testing.T) {
	t.Parallel()
	sink := blockio.FileSink{Path: filepath.Join(t.TempDir(), "missing", "out.txt")}
	require.ErrorIs(t, sink.Commit(context.Background(), []byte("block")), shared.ErrIO)
}
