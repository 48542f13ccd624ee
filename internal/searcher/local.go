package searcher

import (
	"context"

	"go.uber.org/zap"

	"distributed-search/internal/errkind"
	"distributed-search/internal/index"
	"distributed-search/internal/signal"
	"distributed-search/internal/transport"
)

// LocalService answers search_initial and retrieve_websites requests
// against one shard's index, the server half of
// original_source/crates/core/src/searcher/distributed.rs's shard RPC
// surface. It has no get_webpage handler: GetWebpageRequest is defined
// but nothing here answers it.
type LocalService struct {
	idx    index.ShardIndex
	logger *zap.Logger
}

func NewLocalService(idx index.ShardIndex, logger *zap.Logger) *LocalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalService{idx: idx, logger: logger}
}

func (s *LocalService) SearchInitial(req SearchInitialRequest) SearchInitialResponse {
	q := index.SearchQuery{
		Text:               req.QueryText,
		Region:             req.Region,
		HostRankings:       req.HostRankings,
		SignalCoefficients: signal.NewMap(req.CoefficientOverrides),
		BangPrefixes:       req.BangPrefixes,
	}
	result, ok, err := s.idx.SearchInitial(q, req.CollectorTopN, req.DedupHammingRadius)
	if err != nil {
		s.logger.Error("search_initial failed", zap.Error(err))
		return SearchInitialResponse{OK: false}
	}
	if !ok {
		return SearchInitialResponse{OK: false}
	}
	return SearchInitialResponse{Candidates: result.Candidates, NumHits: result.NumHits, OK: true}
}

func (s *LocalService) Retrieve(req RetrieveRequest) RetrieveResponse {
	pages, err := s.idx.RetrieveWebsites(req.Pointers, req.QueryText)
	if err != nil {
		s.logger.Error("retrieve_websites failed", zap.Error(err))
		return RetrieveResponse{}
	}
	return RetrieveResponse{Pages: pages}
}

// ServeSearchInitial runs the accept loop for the search_initial RPC on
// one bound listener, one request per connection (spec.md §4.1 "no
// pipelining"), until ctx is cancelled.
func ServeSearchInitial(ctx context.Context, srv *transport.Server[SearchInitialRequest, SearchInitialResponse], svc *LocalService) {
	serveLoop(ctx, srv, svc.logger, func(req SearchInitialRequest) SearchInitialResponse {
		return svc.SearchInitial(req)
	})
}

// ServeRetrieve runs the accept loop for the retrieve_websites RPC.
func ServeRetrieve(ctx context.Context, srv *transport.Server[RetrieveRequest, RetrieveResponse], svc *LocalService) {
	serveLoop(ctx, srv, svc.logger, func(req RetrieveRequest) RetrieveResponse {
		return svc.Retrieve(req)
	})
}

func serveLoop[Req, Res any](ctx context.Context, srv *transport.Server[Req, Res], logger *zap.Logger, handle func(Req) Res) {
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
			logger.Error("accept failed", zap.Error(err))
			continue
		}
		res := handle(req.Body())
		if err := req.Respond(res); err != nil {
			logger.Error("respond failed", zap.Error(err))
		}
	}
}
