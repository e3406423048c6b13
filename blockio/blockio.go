// Package blockio reads block content from disk and commits mined blocks.
package blockio

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/spacemeshos/blockminer/logging"
	"github.com/spacemeshos/blockminer/shared"
)

// ReadContent reads the block content stored at path. Line feeds, carriage
// returns and tabs are layout only and are dropped.
func ReadContent(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, fmt.Errorf("%w: reading content: %w", shared.ErrIO, err)
	}
	content := StripLayout(data)
	if len(content) > shared.MaxContentSize {
		return nil, fmt.Errorf("%w: %s holds %d bytes", shared.ErrContentTooLarge, path, len(content))
	}
	return content, nil
}

// StripLayout removes '\n', '\r' and '\t' from data in place.
func StripLayout(data []byte) []byte {
	out := data[:0]
	for _, c := range data {
		switch c {
		case '\n', '\r', '\t':
		default:
			out = append(out, c)
		}
	}
	return out
}

// FileSink commits blocks to a file, replacing its previous contents atomically.
type FileSink struct {
	Path string
}

func (s FileSink) Commit(ctx context.Context, block []byte) error {
	if err := atomic.WriteFile(s.Path, bytes.NewReader(block)); err != nil {
		return fmt.Errorf("%w: writing block to %s: %w", shared.ErrIO, s.Path, err)
	}
	logging.FromContext(ctx).Debug("wrote block", zap.String("path", s.Path), zap.Int("bytes", len(block)))
	return nil
}
