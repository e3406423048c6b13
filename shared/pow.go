package shared

import "fmt"

// MaxDifficulty is the largest difficulty target: every bit of a 32 byte digest.
const MaxDifficulty = 256

// ValidateDifficulty checks that zeros is a usable difficulty target.
func ValidateDifficulty(zeros int) error {
	if zeros < 0 || zeros > MaxDifficulty {
		return fmt.Errorf("%w: %d is not a valid amount of leading zero bits (want 0..%d)", ErrConfiguration, zeros, MaxDifficulty)
	}
	return nil
}

// MeetsTarget reports whether the first zeros bits of the hex encoded
// digest, read as a big-endian bit string, are all zero.
func MeetsTarget(digestHex string, zeros uint) (bool, error) {
	wholeNibbles := int(zeros / 4)
	remainder := zeros % 4

	if len(digestHex) < wholeNibbles {
		return false, fmt.Errorf("%w: %d hex characters cannot hold %d zero bits", ErrInvalidDigest, len(digestHex), zeros)
	}
	for i := 0; i < wholeNibbles; i++ {
		if digestHex[i] != '0' {
			return false, nil
		}
	}
	if wholeNibbles == len(digestHex) {
		return remainder == 0, nil
	}

	digit, err := HexDigitValue(digestHex[wholeNibbles])
	if err != nil {
		return false, err
	}
	switch remainder {
	case 0:
		return true, nil
	case 1:
		return digit < 8, nil
	case 2:
		return digit < 4, nil
	default:
		return digit <= 1, nil
	}
}

// HexDigitValue converts a lowercase hex character to its value.
func HexDigitValue(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	default:
		return 0, fmt.Errorf("%w: unexpected character %q", ErrInvalidDigest, c)
	}
}
