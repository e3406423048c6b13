package shared

import "fmt"

const (
	// SubfieldWidth is the number of decimal digits in each nonce subfield.
	SubfieldWidth = 6
	// NonceFieldSize is the size of the nonce field appended to the content:
	// a seed subfield followed by a counter subfield.
	NonceFieldSize = 2 * SubfieldWidth
	// CounterSpace is the number of distinct values a subfield can hold.
	CounterSpace = 1_000_000
	// MaxSubfieldValue is the largest value a subfield can hold.
	MaxSubfieldValue = CounterSpace - 1
)

// EncodeDigits writes value as exactly SubfieldWidth ASCII digits into
// buf[offset:offset+SubfieldWidth], zero padded, most significant digit first.
// The caller guarantees value <= MaxSubfieldValue; higher digits are dropped.
func EncodeDigits(buf []byte, offset int, value uint32) {
	field := buf[offset : offset+SubfieldWidth]
	for i := SubfieldWidth - 1; i >= 0; i-- {
		field[i] = '0' + byte(value%10)
		value /= 10
	}
}

// DecodeDigits is the inverse of EncodeDigits.
func DecodeDigits(buf []byte, offset int) (uint32, error) {
	if offset < 0 || offset+SubfieldWidth > len(buf) {
		return 0, fmt.Errorf("%w: field at %d out of range for %d bytes", ErrInvalidNonce, offset, len(buf))
	}
	var value uint32
	for _, c := range buf[offset : offset+SubfieldWidth] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNonce, c)
		}
		value = value*10 + uint32(c-'0')
	}
	return value, nil
}
