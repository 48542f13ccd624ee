package transport

import (
	"bufio"
	"context"
	"net"
	"time"

	"distributed-search/internal/errkind"
)

// Defaults per spec.md §4.1.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultRequestTimeout = 90 * time.Second
)

// Connection is one frame-protocol connection typed to a single
// (Req, Res) pair — the Go-generic stand-in for the source's
// macro-generated per-service sum type (design note 9(ii)).
type Connection[Req, Res any] struct {
	conn        net.Conn
	r           *bufio.Reader
	maxBodySize uint64
}

// Dial opens a fresh TCP connection with the default connect timeout.
func Dial[Req, Res any](ctx context.Context, addr string) (*Connection[Req, Res], error) {
	return DialTimeout[Req, Res](ctx, addr, DefaultConnectTimeout, DefaultMaxBodySize)
}

// DialTimeout opens a fresh TCP connection, failing with
// TransportUnreachable if the handshake does not complete within timeout.
func DialTimeout[Req, Res any](ctx context.Context, addr string, timeout time.Duration, maxBodySize uint64) (*Connection[Req, Res], error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errkind.New(errkind.TransportUnreachable, err.Error())
	}
	return &Connection[Req, Res]{conn: c, r: bufio.NewReader(c), maxBodySize: maxBodySize}, nil
}

// Send performs one request/response round-trip with the default
// request timeout. It does not close the connection; the server closes
// it after responding (Request.Respond), so a Connection carries one
// request (spec.md §4.1 "Failure model").
func (c *Connection[Req, Res]) Send(req Req) (Res, error) {
	return c.SendWithTimeout(req, DefaultRequestTimeout)
}

// SendWithTimeout performs one request/response round-trip, failing
// with TransportTimeout if it does not complete within timeout.
func (c *Connection[Req, Res]) SendWithTimeout(req Req, timeout time.Duration) (Res, error) {
	var zero Res
	done := make(chan struct{})
	var res Res
	var sendErr error

	go func() {
		defer close(done)
		sendErr = c.sendWithoutTimeout(req, &res)
	}()

	select {
	case <-done:
		return res, sendErr
	case <-time.After(timeout):
		c.conn.Close()
		return zero, errkind.New(errkind.TransportTimeout, "")
	}
}

func (c *Connection[Req, Res]) sendWithoutTimeout(req Req, out *Res) error {
	w := bufio.NewWriter(c.conn)
	if err := writeFrame(w, req, c.maxBodySize); err != nil {
		return err
	}
	if err := readFrame(c.r, out, c.maxBodySize); err != nil {
		return err
	}
	return nil
}

// Close releases the underlying socket. Safe to call more than once.
func (c *Connection[Req, Res]) Close() error {
	return c.conn.Close()
}
