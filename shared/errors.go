package shared

import (
	"errors"
	"fmt"
)

// Error kinds of the failures a run can abort with. Configuration, I/O,
// channel and spawn failures wrap one of them and are classified with
// errors.Is. Outcomes that are not failures of a kind, such as a cancelled
// context or a missing ledger record, use their own sentinels.
var (
	// ErrConfiguration is a bad argument count or an out of range parameter.
	ErrConfiguration = errors.New("configuration error")
	// ErrIO is an unreadable input or an unwritable output.
	ErrIO = errors.New("i/o error")
	// ErrChannel is a failure to establish or fully use a result channel.
	ErrChannel = errors.New("result channel error")
	// ErrSpawn is a failure to create a worker.
	ErrSpawn = errors.New("spawn error")
	// ErrInvalidDigest is an unexpected character in the hex form of a digest.
	// It means the digest primitive is broken and is never retried.
	ErrInvalidDigest = errors.New("invalid digest")

	ErrInvalidNonce    = errors.New("invalid nonce digit")
	ErrContentTooLarge = fmt.Errorf("%w: content too large", ErrConfiguration)
)
