package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"
)

// defaultQUICConfig mirrors the teacher's WebTransport listener tuning
// (internal/distribution/server.go's Start: MaxIdleTimeout 30s, 0-RTT
// enabled for faster reconnects), carried over to the raw quic-go
// listener/dialer this package uses instead of an HTTP/3 upgrade.
func defaultQUICConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		Allow0RTT:       true,
		EnableDatagrams: true,
	}
}

// Listener accepts incoming MoQT connections.
type Listener struct {
	ql *quic.Listener
}

// Listen starts a QUIC listener on addr advertising the MoQT ALPN, using
// cert for the TLS handshake.
func Listen(addr string, cert tls.Certificate) (*Listener, error) {
	tlsConf := TLSConfig(cert)
	ql, err := quic.ListenAddr(addr, tlsConf, defaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &Listener{ql: ql}, nil
}

// Accept blocks until a client dials in, returning a Connection wrapping
// the new QUIC connection.
func (l *Listener) Accept(ctx context.Context) (Connection, error) {
	conn, err := l.ql.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: accept: %w", err)
	}
	return NewConnection(conn), nil
}

// Addr returns the listener's local address.
func (l *Listener) Addr() string { return l.ql.Addr().String() }

// Close shuts down the listener.
func (l *Listener) Close() error { return l.ql.Close() }

// Dial opens a QUIC connection to addr advertising the MoQT ALPN.
// insecureSkipVerify should only be set for examples/tests talking to a
// self-signed server, matching the self-signed cert certs.Generate
// produces.
func Dial(ctx context.Context, addr string, insecureSkipVerify bool) (Connection, error) {
	tlsConf := &tls.Config{
		NextProtos:         []string{ALPN},
		InsecureSkipVerify: insecureSkipVerify,
	}
	conn, err := quic.DialAddr(ctx, addr, tlsConf, defaultQUICConfig())
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return NewConnection(conn), nil
}
