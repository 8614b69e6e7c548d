// Package transport defines the QUIC-like transport abstraction the
// session engine runs on (§6): a bidirectional control stream, uni
// streams for objects, and unreliable datagrams. A concrete adapter
// over quic-go lives in quic.go; session tests substitute a hand-written
// in-memory fake of these interfaces.
package transport

import (
	"context"
	"io"
)

// SendStream is a unidirectional (or the send half of a bidirectional)
// QUIC stream.
type SendStream interface {
	io.Writer
	// SetPriority hints the relative sending priority of this stream to
	// the QUIC layer; lower values are sent first.
	SetPriority(priority int)
	// CancelWrite abruptly resets the stream with the given application
	// error code.
	CancelWrite(code uint64)
	Close() error
}

// RecvStream is a unidirectional (or the receive half of a
// bidirectional) QUIC stream.
type RecvStream interface {
	io.Reader
	// CancelRead abruptly terminates reading with the given application
	// error code.
	CancelRead(code uint64)
}

// Stream is a bidirectional stream, used only for the control channel.
type Stream interface {
	SendStream
	RecvStream
}

// Connection is a single QUIC-like connection carrying one MoQT session.
type Connection interface {
	// OpenControlStream opens the bidirectional control stream. A MoQT
	// client calls this once at session start; a server Accepts it.
	OpenControlStream(ctx context.Context) (Stream, error)
	// AcceptControlStream accepts the peer-initiated control stream (the
	// server side of the exchange above).
	AcceptControlStream(ctx context.Context) (Stream, error)

	// OpenUniStream opens a new unidirectional stream for object
	// delivery (one per subgroup-stream or fetch-stream per §4.6).
	OpenUniStream(ctx context.Context) (SendStream, error)
	// AcceptUniStream accepts a peer-opened unidirectional stream.
	AcceptUniStream(ctx context.Context) (RecvStream, error)

	// SendDatagram sends an unreliable datagram; delivery is not
	// guaranteed and lost datagrams are never retransmitted (§4.6).
	SendDatagram(b []byte) error
	// ReceiveDatagram blocks until a datagram arrives or ctx is done.
	ReceiveDatagram(ctx context.Context) ([]byte, error)

	// RemoteAddr returns the peer's network address as a string,
	// suitable for the new_connection(conn_id, remote) callback (§6).
	RemoteAddr() string

	// CloseWithError performs a graceful or abrupt connection shutdown,
	// carrying an application error code and reason string.
	CloseWithError(code uint64, reason string) error
}
