package transport

import (
	"bufio"
	"net"

	"distributed-search/internal/errkind"
)

// Server accepts frame-protocol connections typed to one (Req, Res) pair.
type Server[Req, Res any] struct {
	listener    net.Listener
	maxBodySize uint64
}

// Bind starts listening on addr.
func Bind[Req, Res any](addr string) (*Server[Req, Res], error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errkind.New(errkind.TransportUnreachable, err.Error())
	}
	return &Server[Req, Res]{listener: l, maxBodySize: DefaultMaxBodySize}, nil
}

// Addr returns the bound local address, useful when addr was ":0".
func (s *Server[Req, Res]) Addr() string {
	return s.listener.Addr().String()
}

// Accept blocks for the next inbound connection and reads its request
// frame. The caller must call Request.Respond exactly once.
func (s *Server[Req, Res]) Accept() (*Request[Req, Res], error) {
	c, err := s.listener.Accept()
	if err != nil {
		return nil, errkind.New(errkind.TransportUnreachable, err.Error())
	}

	var body Req
	if err := readFrame(bufio.NewReader(c), &body, s.maxBodySize); err != nil {
		c.Close()
		return nil, err
	}

	return &Request[Req, Res]{conn: c, body: body, maxBodySize: s.maxBodySize}, nil
}

// Close stops accepting new connections.
func (s *Server[Req, Res]) Close() error {
	return s.listener.Close()
}

// Request is one accepted, request-bearing connection awaiting a response.
type Request[Req, Res any] struct {
	conn        net.Conn
	body        Req
	maxBodySize uint64
}

// Body returns the decoded request.
func (r *Request[Req, Res]) Body() Req {
	return r.body
}

// Respond writes the response frame and closes the connection — a
// handler's one and only chance to answer (spec.md §4.1: no pipelining).
func (r *Request[Req, Res]) Respond(res Res) error {
	defer r.conn.Close()
	w := bufio.NewWriter(r.conn)
	return writeFrame(w, res, r.maxBodySize)
}
