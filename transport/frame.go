package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spacemeshos/blockminer/shared"
)

// FrameHeaderSize is the size of the big-endian payload length preceding every frame.
const FrameHeaderSize = 8

// WriteFrame writes payload as a single length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [FrameHeaderSize]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("%w: writing frame header: %v", shared.ErrChannel, err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("%w: writing %d byte frame: %v", shared.ErrChannel, len(payload), err)
	}
	return nil
}

// ReadFrame reads one frame of at most maxSize payload bytes.
// A stream that ends before any header byte yields ErrNoResult.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoResult
		}
		return nil, fmt.Errorf("%w: reading frame header: %v", shared.ErrChannel, err)
	}
	size := binary.BigEndian.Uint64(header[:])
	if size > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, size, maxSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading %d byte frame: %v", shared.ErrChannel, size, err)
	}
	return payload, nil
}
