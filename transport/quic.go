package transport

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/quic-go/quic-go"
)

// ALPN is the application-layer protocol negotiated for MoQT over QUIC.
const ALPN = "moq-00"

// quicConnection adapts a *quic.Conn to Connection. The control stream
// is opened by the client and accepted by the server, following the
// same client-opens/server-accepts split the teacher used for its
// WebTransport session upgrade (internal/distribution/server.go).
type quicConnection struct {
	conn *quic.Conn
}

// NewConnection wraps an established quic-go connection.
func NewConnection(conn *quic.Conn) Connection {
	return &quicConnection{conn: conn}
}

func (c *quicConnection) OpenControlStream(ctx context.Context) (Stream, error) {
	s, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: open control stream: %w", err)
	}
	return &quicStream{s}, nil
}

func (c *quicConnection) AcceptControlStream(ctx context.Context) (Stream, error) {
	s, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: accept control stream: %w", err)
	}
	return &quicStream{s}, nil
}

func (c *quicConnection) OpenUniStream(ctx context.Context) (SendStream, error) {
	s, err := c.conn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: open uni stream: %w", err)
	}
	return &quicSendStream{s}, nil
}

func (c *quicConnection) AcceptUniStream(ctx context.Context) (RecvStream, error) {
	s, err := c.conn.AcceptUniStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: accept uni stream: %w", err)
	}
	return &quicRecvStream{s}, nil
}

func (c *quicConnection) SendDatagram(b []byte) error {
	return c.conn.SendDatagram(b)
}

func (c *quicConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return c.conn.ReceiveDatagram(ctx)
}

func (c *quicConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *quicConnection) CloseWithError(code uint64, reason string) error {
	return c.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

// quicStreamLike covers the methods both *quic.Stream and
// *quic.ReceiveStream/*quic.SendStream expose that this package needs.
type quicStreamLike interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetPriority(priority int)
	CancelWrite(code quic.StreamErrorCode)
	CancelRead(code quic.StreamErrorCode)
	Close() error
}

type quicStream struct {
	s *quic.Stream
}

func (q *quicStream) Read(p []byte) (int, error)  { return q.s.Read(p) }
func (q *quicStream) Write(p []byte) (int, error) { return q.s.Write(p) }
func (q *quicStream) SetPriority(priority int)     { q.s.SetPriority(priority) }
func (q *quicStream) CancelWrite(code uint64)     { q.s.CancelWrite(quic.StreamErrorCode(code)) }
func (q *quicStream) CancelRead(code uint64)      { q.s.CancelRead(quic.StreamErrorCode(code)) }
func (q *quicStream) Close() error                { return q.s.Close() }

type quicSendStream struct {
	s *quic.SendStream
}

func (q *quicSendStream) Write(p []byte) (int, error) { return q.s.Write(p) }
func (q *quicSendStream) SetPriority(priority int)     { q.s.SetPriority(priority) }
func (q *quicSendStream) CancelWrite(code uint64)     { q.s.CancelWrite(quic.StreamErrorCode(code)) }
func (q *quicSendStream) Close() error                { return q.s.Close() }

type quicRecvStream struct {
	s *quic.ReceiveStream
}

func (q *quicRecvStream) Read(p []byte) (int, error) { return q.s.Read(p) }
func (q *quicRecvStream) CancelRead(code uint64)     { q.s.CancelRead(quic.StreamErrorCode(code)) }

// TLSConfig builds a minimal tls.Config advertising the MoQT ALPN, to be
// combined with a certificate from the certs package.
func TLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPN},
	}
}
