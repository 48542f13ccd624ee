package searcher

import (
	"context"
	"sort"

	"distributed-search/internal/bangs"
	"distributed-search/internal/docid"
	"distributed-search/internal/errkind"
	"distributed-search/internal/index"
	"distributed-search/internal/optic"
	"distributed-search/internal/ranking"
	"distributed-search/internal/searchclient"
	"distributed-search/internal/signal"
	"distributed-search/internal/webgraph"
)

// Query is the caller-facing search request, the distributed
// counterpart of index.SearchQuery: text plus pagination and ranking
// configuration, grounded on
// original_source/crates/core/src/searcher/distributed.rs's
// DistributedSearcher::search.
type Query struct {
	Text               string
	Page               int
	NumResults         int
	Region             string
	HostRankings       index.HostRankings
	SignalCoefficients map[signal.Kind]float64
	Optic              *optic.Optic
	LambdaMart         *ranking.Ensemble
	DerankSimilar      bool
	DedupHammingRadius int
}

// Result is the final, paginated, deduplicated answer.
type Result struct {
	Webpages    []index.RetrievedWebpage
	NumHits     uint64
	HasMorePages bool
	BangRedirect string
}

// DistributedSearcher composes the sharded search_initial fan-out, the
// ranking pipeline's recall stage, a second sharded retrieve_websites
// fan-out, and the ranking pipeline's precision stage — the two-pass
// shape original_source's LocalSearcher::search documents (recall
// pointers first, then retrieve only the survivors).
type DistributedSearcher struct {
	searchClient   *searchclient.Client[SearchInitialRequest, SearchInitialResponse]
	retrieveClient *searchclient.Client[RetrieveRequest, RetrieveResponse]
	bangs          *bangs.Table
	graph          webgraph.Graph
}

// NewDistributedSearcher wires graph in as the shared webgraph instance
// behind both this searcher's InboundSimilarity ranking stage and
// cmd/searchd's internal/similarhosts.Finder, per DESIGN.md "share code
// between the ranking and the similar-hosts path". graph may be nil
// when no webgraph is configured, in which case InboundSimilarity is
// never attached.
func NewDistributedSearcher(
	searchClient *searchclient.Client[SearchInitialRequest, SearchInitialResponse],
	retrieveClient *searchclient.Client[RetrieveRequest, RetrieveResponse],
	bangTable *bangs.Table,
	graph webgraph.Graph,
) *DistributedSearcher {
	return &DistributedSearcher{searchClient: searchClient, retrieveClient: retrieveClient, bangs: bangTable, graph: graph}
}

// Search runs one query end to end, per spec.md §4's "empty query" and
// bang-redirect exit conditions, then the full recall/precision
// pipeline otherwise.
func (d *DistributedSearcher) Search(ctx context.Context, q Query) (Result, error) {
	if q.Text == "" {
		return Result{}, nil
	}

	if d.bangs != nil {
		if bang, remaining, ok := d.bangs.MatchQuery(q.Text); ok {
			return Result{BangRedirect: bang.Resolve(remaining)}, nil
		}
	}

	page := q.Page
	if page < 0 {
		page = 0
	}
	numResults := q.NumResults
	if numResults <= 0 {
		numResults = 20
	}

	collectorTopN := ranking.CollectorTopN(numResults, numResults, page)

	req := SearchInitialRequest{
		QueryText:            q.Text,
		Region:               q.Region,
		HostRankings:         q.HostRankings,
		CoefficientOverrides: q.SignalCoefficients,
		CollectorTopN:        collectorTopN,
		DedupHammingRadius:   q.DedupHammingRadius,
	}

	shardResults := d.searchClient.Send(ctx, req, searchclient.AllShards{}, searchclient.RandomOne{})

	pipeline := ranking.NewPipeline(signal.NewMap(q.SignalCoefficients), q.Optic, q.LambdaMart, q.HostRankings)
	pipeline.DerankSimilar = q.DerankSimilar
	if q.DedupHammingRadius > 0 {
		pipeline.DedupHammingRadius = q.DedupHammingRadius
	}

	if d.graph != nil {
		liked, disliked := ranking.LikedDislikedHosts(q.Optic)
		if len(liked) > 0 || len(disliked) > 0 {
			stage, err := ranking.NewInboundSimilarityStage(ctx, d.graph, liked, disliked)
			if err != nil {
				return Result{}, err
			}
			pipeline.InboundSimilarity = stage
		}
	}

	var numHits uint64
	var recallPages []ranking.RecallRankingWebpage
	shardOfDocID := make(map[uint32]docid.ShardID)
	siteOfDocID := make(map[uint32]string)
	anyShardResponded := false

	for _, sr := range shardResults {
		for _, resp := range sr.Responses {
			if !resp.OK {
				continue
			}
			anyShardResponded = true
			numHits += resp.NumHits

			local := make([]ranking.LocalRecallRankingWebpage, 0, len(resp.Candidates))
			for _, c := range resp.Candidates {
				shardOfDocID[c.Pointer.Address.DocID] = sr.ShardID
				siteOfDocID[c.Pointer.Address.DocID] = c.Site
				local = append(local, ranking.LocalRecallRankingWebpage{
					Pointer:      c.Pointer,
					Signals:      c.Signals,
					InitialScore: c.InitialScore,
				})
			}

			pages, err := pipeline.RecallStage(ctx, local, func(docID uint32) string {
				return siteOfDocID[docID]
			}, 0, collectorTopN)
			if err != nil {
				return Result{}, err
			}
			recallPages = append(recallPages, pages...)
		}
	}

	if !anyShardResponded {
		return Result{}, errkind.New(errkind.RetrievalFailed, "no shard answered search_initial")
	}

	sort.SliceStable(recallPages, func(i, j int) bool {
		return recallPages[i].InitialScore > recallPages[j].InitialScore
	})
	recallPages = pipeline.DerankSimilarWebpages(recallPages)
	if len(recallPages) > collectorTopN {
		recallPages = recallPages[:collectorTopN]
	}

	// Page window: skip offset, take numResults, mirroring the source's
	// skip(offset).take(top_n) tail after recall.
	offset := page * numResults
	hasMore := len(recallPages) > offset+numResults
	windowed := sliceWindow(recallPages, offset, numResults)

	retrieved, err := d.retrieveWindow(ctx, windowed, shardOfDocID, q.Text)
	if err != nil {
		return Result{}, err
	}

	final := pipeline.PrecisionStageWebpages(retrieved, q.Text, func(i int) uint64 {
		return retrieved[i].Pointer.Address.Segment
	}, numResults)

	webpages := make([]index.RetrievedWebpage, len(final))
	for i, p := range final {
		webpages[i] = p.Webpage
	}

	return Result{Webpages: webpages, NumHits: numHits, HasMorePages: hasMore}, nil
}

func sliceWindow[T any](s []T, offset, limit int) []T {
	if offset >= len(s) {
		return nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end]
}

// retrieveWindow fans retrieve_websites out grouped by originating
// shard, then re-attaches each page to its recall-stage candidate.
func (d *DistributedSearcher) retrieveWindow(ctx context.Context, pages []ranking.RecallRankingWebpage, shardOf map[uint32]docid.ShardID, queryText string) ([]ranking.PrecisionRankingWebpage, error) {
	byShard := make(map[docid.ShardID][]ranking.RecallRankingWebpage)
	for _, p := range pages {
		shard := shardOf[p.Pointer.Address.DocID]
		byShard[shard] = append(byShard[shard], p)
	}

	retrievedByDocID := make(map[uint32]index.RetrievedWebpage)
	for shard, group := range byShard {
		pointers := make([]index.WebpagePointer, len(group))
		for i, g := range group {
			pointers[i] = g.Pointer
		}
		req := RetrieveRequest{Pointers: pointers, QueryText: queryText}
		results := d.retrieveClient.SendToShard(ctx, shard, req, searchclient.RandomOne{})
		if len(results) == 0 {
			continue
		}
		for i, g := range group {
			if i < len(results[0].Pages) {
				retrievedByDocID[g.Pointer.Address.DocID] = results[0].Pages[i]
			}
		}
	}

	out := make([]ranking.PrecisionRankingWebpage, 0, len(pages))
	for _, p := range pages {
		rp, ok := retrievedByDocID[p.Pointer.Address.DocID]
		if !ok {
			continue
		}
		out = append(out, p.IntoPrecision(rp))
	}
	return out, nil
}
