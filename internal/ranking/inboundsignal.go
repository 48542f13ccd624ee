package ranking

import (
	"context"

	"distributed-search/internal/docid"
	"distributed-search/internal/inbound"
	"distributed-search/internal/signal"
	"distributed-search/internal/webgraph"
)

// InboundSimilarityStage attaches the InboundSimilarity signal to every
// candidate at the recall stage, sharing the bit-vector Jaccard scorer
// with internal/similarhosts (DESIGN.md "share code between the ranking
// and the similar-hosts path").
type InboundSimilarityStage struct {
	graph  webgraph.Graph
	scorer *inbound.Scorer
}

// NewInboundSimilarityStage builds the stage from the liked/disliked
// host set an optic's site preferences (or a query's host_rankings)
// resolve to.
func NewInboundSimilarityStage(ctx context.Context, graph webgraph.Graph, likedHosts, dislikedHosts []string) (*InboundSimilarityStage, error) {
	liked := hostsToNodes(likedHosts)
	disliked := hostsToNodes(dislikedHosts)
	scorer, err := inbound.NewScorer(ctx, graph, liked, disliked, true)
	if err != nil {
		return nil, err
	}
	return &InboundSimilarityStage{graph: graph, scorer: scorer}, nil
}

func hostsToNodes(hosts []string) []docid.NodeID {
	out := make([]docid.NodeID, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, docid.HostNodeID(docid.RootDomain(h)))
	}
	return out
}

// Apply computes and attaches the InboundSimilarity calculation for
// every candidate, keyed by each candidate's host.
func (s *InboundSimilarityStage) Apply(ctx context.Context, pages []RecallRankingWebpage) ([]RecallRankingWebpage, error) {
	if s == nil || s.scorer == nil {
		return pages, nil
	}
	for i := range pages {
		node := docid.HostNodeID(docid.RootDomain(pages[i].Host))
		sketches, err := inbound.BatchNewFor(ctx, []docid.NodeID{node}, s.graph, webgraph.Limit(128))
		if err != nil {
			return nil, err
		}
		if len(sketches) == 0 {
			continue
		}
		value := s.scorer.Score(sketches[0])
		pages[i].Signals = pages[i].Signals.Clone()
		pages[i].Signals[signal.InboundSimilarity] = signal.Symmetrical(value)
	}
	return pages, nil
}
