package shared_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/blockminer/shared"
)

func TestEncodeDigits(t *testing.T) {
	t.Parallel()
	buf := []byte("xx------yy")

	shared.EncodeDigits(buf, 2, 482913)
	require.Equal(t, "xx482913yy", string(buf))

	shared.EncodeDigits(buf, 2, 47)
	require.Equal(t, "xx000047yy", string(buf))

	shared.EncodeDigits(buf, 2, 0)
	require.Equal(t, "xx000000yy", string(buf))

	shared.EncodeDigits(buf, 2, shared.MaxSubfieldValue)
	require.Equal(t, "xx999999yy", string(buf))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	buf := make([]byte, shared.SubfieldWidth+2)
	for v := uint32(0); v <= shared.MaxSubfieldValue; v++ {
		buf[0], buf[len(buf)-1] = '<', '>'
		shared.EncodeDigits(buf, 1, v)
		if buf[0] != '<' || buf[len(buf)-1] != '>' {
			t.Fatalf("encoding %d wrote outside its field: %q", v, buf)
		}
		got, err := shared.DecodeDigits(buf, 1)
		if err != nil || got != v {
			t.Fatalf("round trip of %d gave %d (%v)", v, got, err)
		}
	}
}

func TestDecodeDigitsInvalid(t *testing.T) {
	t.Parallel()
	_, err := shared.DecodeDigits([]byte("12a456"), 0)
	require.ErrorIs(t, err, shared.ErrInvalidNonce)

	_, err = shared.DecodeDigits([]byte("12345"), 0)
	require.ErrorIs(t, err, shared.ErrInvalidNonce)

	_, err = shared.DecodeDigits([]byte("123456"), -1)
	require.ErrorIs(t, err, shared.ErrInvalidNonce)
}
