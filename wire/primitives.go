// Package wire implements the MoQT wire codecs: control-message framing
// and payload encode/decode for every message named in draft-ietf-moq-
// transport-15, plus the three object/group stream and datagram
// framings and their key-value extension maps.
package wire

import (
	"errors"
	"fmt"

	"github.com/zsiec/moqt/varint"
)

// ErrTruncated indicates the input does not yet hold a complete value;
// the caller should retry once more bytes arrive.
var ErrTruncated = errors.New("wire: truncated")

// ErrOutOfRange indicates a decoded varint length or value was too
// large for the remaining input or for the field's valid domain.
var ErrOutOfRange = errors.New("wire: out of range")

// reader sequentially consumes bytes from a fixed buffer, tracking a
// read cursor. It never grows; parse functions wrap its errors in
// ErrTruncated so streambuf.TryParse can distinguish "need more bytes"
// from a real decode failure.
type reader struct {
	data []byte
	pos  int
}

func newReader(b []byte) *reader {
	return &reader{data: b}
}

func (r *reader) remaining() []byte {
	return r.data[r.pos:]
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("%w: byte", ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytesN(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length", ErrOutOfRange)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes", ErrTruncated, n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) varint() (uint64, error) {
	v, n, err := varint.Parse(r.remaining())
	if err != nil {
		if errors.Is(err, varint.ErrTruncated) {
			return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	r.pos += n
	return v.Uint64(), nil
}

// varintBytes reads a varint-length-prefixed byte string.
func (r *reader) varintBytes() ([]byte, error) {
	length, err := r.varint()
	if err != nil {
		return nil, err
	}
	return r.bytesN(int(length))
}

// appendVarint appends v as a MoQT varint.
func appendVarint(buf []byte, v uint64) []byte {
	return varint.Append(buf, varint.UintVar(v))
}

// appendVarintBytes appends a varint-length-prefixed byte string.
func appendVarintBytes(buf []byte, data []byte) []byte {
	buf = appendVarint(buf, uint64(len(data)))
	buf = append(buf, data...)
	return buf
}

// Namespace is the wire representation of a namespace tuple: an ordered
// sequence of opaque byte elements, encoded as [count(varint)]
// [len(varint) bytes]...
type Namespace [][]byte

func appendNamespace(buf []byte, ns Namespace) []byte {
	buf = appendVarint(buf, uint64(len(ns)))
	for _, elem := range ns {
		buf = appendVarintBytes(buf, elem)
	}
	return buf
}

func (r *reader) namespace() (Namespace, error) {
	count, err := r.varint()
	if err != nil {
		return nil, fmt.Errorf("namespace count: %w", err)
	}
	ns := make(Namespace, count)
	for i := range ns {
		elem, err := r.varintBytes()
		if err != nil {
			return nil, fmt.Errorf("namespace element %d: %w", i, err)
		}
		ns[i] = elem
	}
	return ns, nil
}

// Extensions is the key-value extension map attached to object headers.
// Even keys carry a numeric value (zero-extended to 8 bytes for
// comparison); odd keys carry opaque bytes compared byte-exact (P9).
type Extensions map[uint64][]byte

// SetNumeric stores a numeric extension value under an even key.
func (e Extensions) SetNumeric(key, value uint64) {
	if key%2 != 0 {
		panic("wire: numeric extension key must be even")
	}
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(value >> (8 * i))
	}
	e[key] = b
}

// Numeric reads an even-keyed numeric extension, zero-extending short
// values per the even-key comparison rule.
func (e Extensions) Numeric(key uint64) (uint64, bool) {
	b, ok := e[key]
	if !ok {
		return 0, false
	}
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v, true
}

// SetBytes stores an opaque byte value under an odd key.
func (e Extensions) SetBytes(key uint64, value []byte) {
	if key%2 != 1 {
		panic("wire: byte extension key must be odd")
	}
	e[key] = value
}

// Equal reports whether e and other compare equal under the per-key
// rules of P9: even keys compare numerically modulo zero-extension, odd
// keys compare byte-exact, and key order is irrelevant.
func (e Extensions) Equal(other Extensions) bool {
	if len(e) != len(other) {
		return false
	}
	for k, v := range e {
		ov, ok := other[k]
		if !ok {
			return false
		}
		if k%2 == 0 {
			nv, _ := e.Numeric(k)
			no, _ := other.Numeric(k)
			if nv != no {
				return false
			}
		} else if string(v) != string(ov) {
			return false
		}
	}
	return true
}

func appendExtensions(buf []byte, ext Extensions) []byte {
	buf = appendVarint(buf, uint64(len(ext)))
	for k, v := range ext {
		buf = appendVarint(buf, k)
		buf = appendVarintBytes(buf, v)
	}
	return buf
}

func (r *reader) extensions() (Extensions, error) {
	count, err := r.varint()
	if err != nil {
		return nil, fmt.Errorf("extension count: %w", err)
	}
	ext := make(Extensions, count)
	for i := uint64(0); i < count; i++ {
		key, err := r.varint()
		if err != nil {
			return nil, fmt.Errorf("extension key: %w", err)
		}
		val, err := r.varintBytes()
		if err != nil {
			return nil, fmt.Errorf("extension value: %w", err)
		}
		ext[key] = val
	}
	return ext, nil
}
