package session

import (
	"context"
	"io"
	"sync"

	"go.uber.org/mock/gomock" // kept for gomock.Any()-style flexible assertions below

	"github.com/zsiec/moqt/transport"
)

// fakeStream is a pipe-backed transport.Stream: everything written to one
// end is readable from the other. Two of these back-to-back make the
// control-stream half of a fakeConnection pair, the same way the corpus's
// manual mocks implement an interface directly rather than relying on a
// mockgen-generated stub (cli/cmd/encore/secret_check_test.go).
type fakeStream struct {
	r io.Reader
	w io.Writer

	mu        sync.Mutex
	cancelled bool
}

func newFakeStreamPair() (*fakeStream, *fakeStream) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return &fakeStream{r: ar, w: bw}, &fakeStream{r: br, w: aw}
}

func (s *fakeStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *fakeStream) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *fakeStream) SetPriority(int)             {}
func (s *fakeStream) CancelWrite(uint64) {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}
func (s *fakeStream) CancelRead(uint64) {}
func (s *fakeStream) Close() error      { return nil }

// fakeConnection implements transport.Connection entirely in memory: the
// control stream is a pair of pipes wired up front, uni streams and
// datagrams are queued on channels. Good enough to drive a Session's
// setup exchange and control loop without a real QUIC connection.
type fakeConnection struct {
	control transport.Stream
	remote  string

	uniOut chan transport.SendStream
	uniIn  chan transport.RecvStream

	dgramOut chan []byte
	dgramIn  chan []byte

	mu     sync.Mutex
	closed bool
	code   uint64
	reason string
}

func newFakeConnectionPair(remoteA, remoteB string) (*fakeConnection, *fakeConnection) {
	a, b := newFakeStreamPair()
	connA := &fakeConnection{control: a, remote: remoteB, uniOut: make(chan transport.SendStream, 8), uniIn: make(chan transport.RecvStream, 8), dgramOut: make(chan []byte, 8), dgramIn: make(chan []byte, 8)}
	connB := &fakeConnection{control: b, remote: remoteA, uniOut: make(chan transport.SendStream, 8), uniIn: make(chan transport.RecvStream, 8), dgramOut: make(chan []byte, 8), dgramIn: make(chan []byte, 8)}
	// Cross-wire so a's outgoing uni streams/datagrams appear as b's
	// incoming, and vice versa.
	connA.uniOut, connB.uniIn = connB.uniIn, connA.uniOut
	connA.dgramOut, connB.dgramIn = connB.dgramIn, connA.dgramOut
	return connA, connB
}

func (c *fakeConnection) OpenControlStream(ctx context.Context) (transport.Stream, error) {
	return c.control, nil
}

func (c *fakeConnection) AcceptControlStream(ctx context.Context) (transport.Stream, error) {
	return c.control, nil
}

func (c *fakeConnection) OpenUniStream(ctx context.Context) (transport.SendStream, error) {
	s, _ := newFakeStreamPair()
	select {
	case c.uniOut <- s:
	default:
	}
	return s, nil
}

func (c *fakeConnection) AcceptUniStream(ctx context.Context) (transport.RecvStream, error) {
	select {
	case s := <-c.uniIn:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConnection) SendDatagram(b []byte) error {
	cp := append([]byte(nil), b...)
	select {
	case c.dgramOut <- cp:
	default:
	}
	return nil
}

func (c *fakeConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case b := <-c.dgramIn:
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConnection) RemoteAddr() string { return c.remote }

func (c *fakeConnection) CloseWithError(code uint64, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.code, c.reason = code, reason
	// Like a real connection close, fail blocked control-stream reads and
	// writes on both ends.
	if fs, ok := c.control.(*fakeStream); ok {
		fs.r.(*io.PipeReader).Close()
		fs.w.(*io.PipeWriter).Close()
	}
	return nil
}

// anyRequestID is a gomock.Matcher accepted by assertions below that only
// care a request id was allocated, not its exact value.
var anyRequestID = gomock.Any()
