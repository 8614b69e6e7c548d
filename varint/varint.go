// Package varint implements the QUIC/MoQT variable-length integer
// encoding: four on-wire widths selected by the two high bits of the
// first byte, encoding values up to 2^62-1.
package varint

import (
	"errors"
	"fmt"

	"github.com/quic-go/quic-go/quicvarint"
)

// MaxValue is the largest value a UintVar can hold (2^62 - 1).
const MaxValue = uint64(1)<<62 - 1

// Sentinel errors returned by Parse.
var (
	// ErrTruncated is returned when the input does not contain enough
	// bytes to complete the encoded value.
	ErrTruncated = errors.New("varint: truncated")

	// ErrOutOfRange is returned when a decoded value is >= 2^62.
	ErrOutOfRange = errors.New("varint: value out of range")
)

// UintVar is a MoQT/QUIC variable-length integer in the range
// [0, 2^62-1].
type UintVar uint64

// New constructs a UintVar from a u64, returning ErrOutOfRange if the
// value exceeds MaxValue.
func New(v uint64) (UintVar, error) {
	if v > MaxValue {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return UintVar(v), nil
}

// Parse decodes a UintVar from the start of b, returning the value and
// the number of bytes consumed (1, 2, 4, or 8). It returns ErrTruncated
// if b does not hold a complete encoding, or ErrOutOfRange if the decoded
// value is >= 2^62 (quicvarint itself decodes at most 62 bits, so this
// check does not fire for any input quicvarint accepts).
func Parse(b []byte) (UintVar, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	v, n, err := quicvarint.Parse(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if v > MaxValue {
		return 0, n, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return UintVar(v), n, nil
}

// Append encodes v and appends it to b, choosing the smallest width that
// fits (1, 2, 4, or 8 bytes).
func Append(b []byte, v UintVar) []byte {
	return quicvarint.Append(b, uint64(v))
}

// Bytes returns the minimal-width encoding of v as a new slice.
func (v UintVar) Bytes() []byte {
	return Append(nil, v)
}

// Size returns the number of bytes v encodes to.
func (v UintVar) Size() int {
	return quicvarint.Len(uint64(v))
}

// SizeFromLeadingByte returns the total encoded length implied by a
// header byte alone (1, 2, 4, or 8), without needing the rest of the
// buffer. It never fails: the two high bits always select one of the
// four widths.
func SizeFromLeadingByte(b byte) int {
	switch b >> 6 {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 8
	}
}

// Uint64 returns v as a plain uint64.
func (v UintVar) Uint64() uint64 {
	return uint64(v)
}
