package shared

import (
	"encoding/hex"

	"github.com/minio/sha256-simd" // simd optimized sha256 computation
)

// DigestSize is the size in bytes of a block digest.
const DigestSize = sha256.Size

// DigestFunc computes the digest of a block and renders it as lowercase hex.
type DigestFunc func(data []byte) string

// Sha256Hex is the default DigestFunc.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
