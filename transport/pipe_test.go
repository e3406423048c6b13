package transport_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/blockminer/shared"
	"github.com/spacemeshos/blockminer/transport"
)

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, transport.WriteFrame(&buf, []byte("hello482913000672")))
	require.Equal(t, transport.FrameHeaderSize+17, buf.Len())

	payload, err := transport.ReadFrame(&buf, 17)
	require.NoError(t, err)
	require.Equal(t, "hello482913000672", string(payload))
}

func TestReadFrameErrors(t *testing.T) {
	t.Parallel()
	t.Run("empty stream", func(t *testing.T) {
		_, err := transport.ReadFrame(bytes.NewReader(nil), 10)
		require.ErrorIs(t, err, transport.ErrNoResult)
	})
	t.Run("truncated header", func(t *testing.T) {
		_, err := transport.ReadFrame(bytes.NewReader([]byte{0, 0, 0}), 10)
		require.ErrorIs(t, err, shared.ErrChannel)
	})
	t.Run("too large", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, transport.WriteFrame(&buf, make([]byte, 11)))
		_, err := transport.ReadFrame(&buf, 10)
		require.ErrorIs(t, err, transport.ErrFrameTooLarge)
	})
	t.Run("truncated payload", func(t *testing.T) {
		frame := make([]byte, transport.FrameHeaderSize+2)
		binary.BigEndian.PutUint64(frame, 5)
		_, err := transport.ReadFrame(bytes.NewReader(frame), 10)
		require.ErrorIs(t, err, shared.ErrChannel)
	})
}

// A block far larger than the OS pipe buffer is written synchronously
// before anybody calls Receive.
func TestPipeLargeBlockDoesNotBlockWriter(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	block := bytes.Repeat([]byte{'a'}, shared.TemplateSize(shared.MaxContentSize))
	recv := transport.NewStreamReceiver(r, len(block))
	sender := transport.NewPipeSender(w)

	require.NoError(t, sender.Send(context.Background(), block))
	require.ErrorIs(t, sender.Send(context.Background(), block), transport.ErrAlreadySent)
	require.NoError(t, sender.Close())
	require.NoError(t, sender.Close())

	<-recv.Drained()
	payload, err := recv.Receive(context.Background(), len(block))
	require.NoError(t, err)
	require.Equal(t, block, payload)
}

func TestPipeClosedWithoutResult(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	recv := transport.NewStreamReceiver(r, 100)
	sender := transport.NewPipeSender(w)
	require.NoError(t, sender.Close())
	require.ErrorIs(t, sender.Send(context.Background(), []byte{1}), transport.ErrClosed)

	_, err = recv.Receive(context.Background(), 17)
	require.ErrorIs(t, err, transport.ErrNoResult)
}

func TestPipeReceiveSizeMismatch(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	recv := transport.NewStreamReceiver(r, 100)
	sender := transport.NewPipeSender(w)
	require.NoError(t, sender.Send(context.Background(), []byte("short")))
	require.NoError(t, sender.Close())

	_, err = recv.Receive(context.Background(), 17)
	require.ErrorIs(t, err, transport.ErrSizeMismatch)
}

func TestStreamReceiverHonorsContext(t *testing.T) {
	t.Parallel()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	recv := transport.NewStreamReceiver(r, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = recv.Receive(ctx, 17)
	require.ErrorIs(t, err, context.Canceled)
}
