package inbound

import (
	"context"
	"testing"

	"distributed-search/internal/docid"
	"distributed-search/internal/webgraph"
)

func TestJaccardIdenticalSketchesScoreOne(t *testing.T) {
	g := webgraph.NewInMemory()
	g.AddEdge("x1.com", "target.com", false)
	g.AddEdge("x2.com", "target.com", false)

	edges, err := g.HostBacklinks(context.Background(), docid.HostNodeID("target.com"), webgraph.Unlimited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := NewBitVec(edges)
	b := NewBitVec(edges)

	if got := a.Jaccard(b); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestJaccardDisjointSketchesScoreZero(t *testing.T) {
	var a, b BitVec
	a.set(3)
	b.set(900)

	if got := a.Jaccard(b); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestScorerPrefersLikedOverlap(t *testing.T) {
	g := webgraph.NewInMemory()
	g.AddEdge("shared.com", "liked.com", false)
	g.AddEdge("shared.com", "candidate_good.com", false)
	g.AddEdge("other.com", "disliked.com", false)
	g.AddEdge("other.com", "candidate_bad.com", false)

	ctx := context.Background()
	scorer, err := NewScorer(ctx, g, []docid.NodeID{docid.HostNodeID("liked.com")}, []docid.NodeID{docid.HostNodeID("disliked.com")}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	goodEdges, _ := g.HostBacklinks(ctx, docid.HostNodeID("candidate_good.com"), webgraph.Unlimited)
	badEdges, _ := g.HostBacklinks(ctx, docid.HostNodeID("candidate_bad.com"), webgraph.Unlimited)

	goodScore := scorer.Score(NewBitVec(goodEdges))
	badScore := scorer.Score(NewBitVec(badEdges))

	if goodScore <= badScore {
		t.Fatalf("expected candidate overlapping liked set to score higher: good=%v bad=%v", goodScore, badScore)
	}
}
