package liveindex

import (
	"context"

	"go.uber.org/zap"

	"distributed-search/internal/errkind"
	"distributed-search/internal/transport"
)

// IngestRequest is the wire request for a live-index node's ingest RPC.
// FromPeer distinguishes a client-originated write (which must fan out
// to the shard's other replicas to reach quorum) from a replicated
// write forwarded by a peer (which must not fan out again; peer fanout
// always carries ConsistencyFraction 0, meaning "apply locally only").
// ConsistencyFraction, when nonzero, overrides the node's configured
// default for this write.
type IngestRequest struct {
	Pages               []IndexableWebpage
	FromPeer            bool
	ConsistencyFraction float64
}

// IngestResponse reports whether this node accepted and durably logged
// the batch.
type IngestResponse struct {
	OK    bool
	State string
}

// Service is the RPC-facing wrapper around a Node, the live-index
// counterpart of internal/searcher's LocalService.
type Service struct {
	node   *Node
	logger *zap.Logger
}

func NewService(node *Node, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{node: node, logger: logger}
}

// Ingest applies one request synchronously and reports the outcome.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) IngestResponse {
	if err := s.node.Ingest(ctx, req.Pages, req.FromPeer, req.ConsistencyFraction); err != nil {
		s.logger.Error("ingest failed", zap.Error(err), zap.Bool("from_peer", req.FromPeer))
		return IngestResponse{OK: false, State: s.node.State().String()}
	}
	return IngestResponse{OK: true, State: s.node.State().String()}
}

// ServeIngest runs the accept loop for the ingest RPC on one bound
// listener, one request per connection, until ctx is cancelled.
func ServeIngest(ctx context.Context, srv *transport.Server[IngestRequest, IngestResponse], svc *Service) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		req, err := srv.Accept()
		if err != nil {
			if errkind.Is(err, errkind.TransportUnreachable) {
				return
			}
			svc.logger.Error("accept failed", zap.Error(err))
			continue
		}
		res := svc.Ingest(ctx, req.Body())
		if err := req.Respond(res); err != nil {
			svc.logger.Error("respond failed", zap.Error(err))
		}
	}
}
