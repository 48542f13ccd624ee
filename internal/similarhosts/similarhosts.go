// Package similarhosts finds hosts whose backlink profile resembles a
// set of seed hosts, grounded directly on
// original_source/crates/core/src/similar_hosts.rs's
// SimilarHostsFinder::find_similar_hosts.
package similarhosts

import (
	"context"
	"sort"

	"distributed-search/internal/docid"
	"distributed-search/internal/inbound"
	"distributed-search/internal/webgraph"
)

const (
	numBacklinkApproximationThreshold = 32
	numBacklinkApproximationFraction  = 0.25
	approximationCandidates           = 256
	candidatesLimit                   = 1024
	deadLinksBuffer                   = 30

	maxIngoingEdgesPerSeed     = webgraph.Limit(128)
	maxOutgoingEdgesPerBacklink = webgraph.Limit(512)
)

// ScoredHost is one similar-hosts result.
type ScoredHost struct {
	Node  webgraph.Node
	Score float64
}

// Finder is SimilarHostsFinder: given a set of seed hosts, it returns
// hosts whose backlink sketch most resembles the seeds'.
type Finder struct {
	graph           webgraph.Graph
	maxSimilarHosts int
}

func NewFinder(graph webgraph.Graph, maxSimilarHosts int) *Finder {
	return &Finder{graph: graph, maxSimilarHosts: maxSimilarHosts}
}

// potentialNodes gathers backlink sources of seeds, counts their
// outgoing edges, and keeps the candidates whose count passes the
// approximation guard — mirroring SimilarHostsFinder::potential_nodes.
func (f *Finder) potentialNodes(ctx context.Context, nodes []docid.NodeID, urlFilters []string) ([]docid.NodeID, error) {
	backlinkSet := map[docid.NodeID]bool{}
	for _, n := range nodes {
		edges, err := f.graph.HostBacklinks(ctx, n, maxIngoingEdgesPerSeed)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if !e.NoFollow {
				backlinkSet[e.From] = true
			}
		}
	}
	backlinkNodes := make([]docid.NodeID, 0, len(backlinkSet))
	for n := range backlinkSet {
		backlinkNodes = append(backlinkNodes, n)
	}
	numBacklinkNodes := len(backlinkNodes)

	counts := map[docid.NodeID]int{}
	for _, bn := range backlinkNodes {
		edges, err := f.graph.HostForwardlinks(ctx, bn, maxOutgoingEdgesPerBacklink, urlFilters)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if !e.NoFollow {
				counts[e.To]++
			}
		}
	}

	applyFilter := numBacklinkNodes > numBacklinkApproximationThreshold
	numCandidates := candidatesLimit
	if applyFilter {
		numCandidates = approximationCandidates
	}
	threshold := int(ceil(float64(numBacklinkNodes) * numBacklinkApproximationFraction))

	seedSet := map[docid.NodeID]bool{}
	for _, n := range nodes {
		seedSet[n] = true
	}

	type countedNode struct {
		id    docid.NodeID
		count int
	}
	var ranked []countedNode
	for id, c := range counts {
		if applyFilter && c > threshold {
			continue
		}
		if seedSet[id] {
			continue
		}
		ranked = append(ranked, countedNode{id, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > numCandidates {
		ranked = ranked[:numCandidates]
	}

	out := make([]docid.NodeID, len(ranked))
	for i, r := range ranked {
		out[i] = r.id
	}
	return out, nil
}

func ceil(f float64) float64 {
	i := float64(int64(f))
	if f > i {
		return i + 1
	}
	return i
}

// scoredNodes scores every potential node against a Scorer built from
// the seed set, keeping the top limit — mirrors
// SimilarHostsFinder::scored_nodes.
func (f *Finder) scoredNodes(ctx context.Context, nodes []docid.NodeID, limit int, urlFilters []string) ([]ScoredHost, error) {
	scorer, err := inbound.NewScorer(ctx, f.graph, nodes, nil, true)
	if err != nil {
		return nil, err
	}
	potential, err := f.potentialNodes(ctx, nodes, urlFilters)
	if err != nil {
		return nil, err
	}

	sketches, err := inbound.BatchNewFor(ctx, potential, f.graph, webgraph.Unlimited)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredHost, 0, len(potential))
	for i, id := range potential {
		score := scorer.Score(sketches[i])
		node, ok, err := f.graph.IDToNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		scored = append(scored, ScoredHost{Node: node, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// FindSimilarHosts implements the full pipeline: seed normalization,
// backlink/outgoing-edge gathering with the approximation guard,
// Jaccard scoring, dead-link filtering, and same-domain dedup — mirrors
// SimilarHostsFinder::find_similar_hosts exactly.
func (f *Finder) FindSimilarHosts(ctx context.Context, seedHosts []string, limit int, urlFilters []string) ([]ScoredHost, error) {
	origLimit := limit
	if origLimit > f.maxSimilarHosts {
		origLimit = f.maxSimilarHosts
	}
	fetchLimit := origLimit + len(seedHosts) + deadLinksBuffer

	domains := map[string]bool{}
	nodeIDs := make([]docid.NodeID, 0, len(seedHosts))
	for _, host := range seedHosts {
		if host == "" {
			continue
		}
		domains[docid.RootDomain(host)] = true
		nodeIDs = append(nodeIDs, docid.HostNodeID(host))
	}

	scored, err := f.scoredNodes(ctx, nodeIDs, fetchLimit, urlFilters)
	if err != nil {
		return nil, err
	}

	potential := make([]docid.NodeID, len(scored))
	for i, s := range scored {
		potential[i] = s.Node.ID
	}

	// Dead-link filter: a node without at least one known ingoing
	// edge is treated as a dead link and dropped.
	kept := make([]ScoredHost, 0, len(scored))
	for i, id := range potential {
		edges, err := f.graph.HostBacklinks(ctx, id, webgraph.Limit(1))
		if err != nil {
			return nil, err
		}
		if len(edges) == 0 {
			continue
		}
		kept = append(kept, scored[i])
	}

	out := make([]ScoredHost, 0, origLimit)
	for _, s := range kept {
		dom := docid.RootDomain(s.Node.Host)
		if domains[dom] {
			continue
		}
		out = append(out, s)
		if len(out) == origLimit {
			break
		}
	}
	return out, nil
}
