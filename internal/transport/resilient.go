package transport

import (
	"context"
	"time"

	"distributed-search/internal/errkind"
)

// ResilientConnection separates "obtaining a live connection" from
// "completing a request on a connection" (§9 design note), unlike the
// source's single interleaved retry loop: CreateResilient retries only
// the connect step; SendWithTimeoutRetry retries only the request step,
// reconnecting between attempts when the failure was a connection
// problem and giving up immediately on a non-retryable error kind.
type ResilientConnection[Req, Res any] struct {
	addr        string
	connTimeout time.Duration
	maxBodySize uint64
	conn        *Connection[Req, Res]
}

// CreateResilient dials addr, retrying per backoff on ConnectionTimeout.
func CreateResilient[Req, Res any](ctx context.Context, addr string, connTimeout time.Duration, backoff Backoff) (*ResilientConnection[Req, Res], error) {
	conn, err := DialTimeout[Req, Res](ctx, addr, connTimeout, DefaultMaxBodySize)
	for err != nil {
		d, ok := backoff.Next()
		if !ok {
			return nil, errkind.New(errkind.TransportUnreachable, err.Error())
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, errkind.New(errkind.TransportUnreachable, ctx.Err().Error())
		}
		conn, err = DialTimeout[Req, Res](ctx, addr, connTimeout, DefaultMaxBodySize)
	}
	return &ResilientConnection[Req, Res]{addr: addr, connTimeout: connTimeout, maxBodySize: DefaultMaxBodySize, conn: conn}, nil
}

// SendWithTimeoutRetry sends req, retrying per backoff. A connection- or
// request-timeout reconnects and retries; any other error kind (bad
// request, body too large, an application error) surfaces immediately
// without consuming the retry budget, per the §9 design note.
func (rc *ResilientConnection[Req, Res]) SendWithTimeoutRetry(ctx context.Context, req Req, timeout time.Duration, backoff Backoff) (Res, error) {
	var zero Res
	for {
		res, err := rc.conn.SendWithTimeout(req, timeout)
		if err == nil {
			return res, nil
		}

		if !isRetryable(err) {
			return zero, err
		}

		d, hasNext := backoff.Next()
		if !hasNext {
			return zero, err
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return zero, errkind.New(errkind.TransportTimeout, ctx.Err().Error())
		}

		newConn, dialErr := DialTimeout[Req, Res](ctx, rc.addr, rc.connTimeout, rc.maxBodySize)
		if dialErr != nil {
			continue
		}
		rc.conn.Close()
		rc.conn = newConn
	}
}

// Close releases the underlying connection.
func (rc *ResilientConnection[Req, Res]) Close() error {
	return rc.conn.Close()
}

func isRetryable(err error) bool {
	e, ok := err.(*errkind.Error)
	if !ok {
		return false
	}
	return e.Kind.Retryable()
}
