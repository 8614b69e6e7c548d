package varint

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeGoldenValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   uint64
		want []byte
	}{
		{"1-byte", 0x12, []byte{0x12}},
		{"2-byte", 0x1234, []byte{0x52, 0x34}},
		{"4-byte", 0x123456, []byte{0x80, 0x12, 0x34, 0x56}},
		{"8-byte", 0x123456789, []byte{0xC0, 0, 0, 0x1, 0x23, 0x45, 0x67, 0x89}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := New(tc.in)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got := v.Bytes()
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("Bytes() = % x, want % x", got, tc.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 63, 64, 16383, 16384, 1 << 29, 1<<30 - 1, 1 << 30, MaxValue}
	for _, in := range values {
		v, err := New(in)
		if err != nil {
			t.Fatalf("New(%d): %v", in, err)
		}
		enc := v.Bytes()
		if n := v.Size(); n != len(enc) {
			t.Fatalf("Size() = %d, want %d", n, len(enc))
		}

		got, n, err := Parse(enc)
		if err != nil {
			t.Fatalf("Parse(% x): %v", enc, err)
		}
		if n != len(enc) {
			t.Fatalf("Parse consumed %d bytes, want %d", n, len(enc))
		}
		if uint64(got) != in {
			t.Fatalf("Parse(% x) = %d, want %d", enc, got, in)
		}
	}
}

func TestSizeFromLeadingByte(t *testing.T) {
	t.Parallel()

	for _, in := range []uint64{0, 63, 64, 16383, 16384, 1 << 29, 1 << 30, MaxValue} {
		v, err := New(in)
		if err != nil {
			t.Fatalf("New(%d): %v", in, err)
		}
		enc := v.Bytes()
		if got := SizeFromLeadingByte(enc[0]); got != len(enc) {
			t.Fatalf("SizeFromLeadingByte(%#x) = %d, want %d", enc[0], got, len(enc))
		}
	}
}

func TestNewOutOfRange(t *testing.T) {
	t.Parallel()
	_, err := New(MaxValue + 1)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
}

func TestParseTruncated(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		{},
		{0x40},       // says 2 bytes, only 1 present
		{0x80, 0, 0}, // says 4 bytes, only 3 present
	}
	for _, b := range cases {
		_, _, err := Parse(b)
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("Parse(% x) = %v, want ErrTruncated", b, err)
		}
	}
}
