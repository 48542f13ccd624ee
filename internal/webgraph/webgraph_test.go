package webgraph

import (
	"context"
	"testing"

	"distributed-search/internal/docid"
)

func TestInMemoryBacklinksAndForwardlinks(t *testing.T) {
	g := NewInMemory()
	g.AddEdge("a.com", "b.com", false)
	g.AddEdge("c.com", "b.com", false)
	g.AddEdge("b.com", "d.com", true)

	ctx := context.Background()
	b := docid.HostNodeID("b.com")

	back, err := g.HostBacklinks(ctx, b, Unlimited)
	if err != nil || len(back) != 2 {
		t.Fatalf("got %+v, err %v", back, err)
	}

	fwd, err := g.HostForwardlinks(ctx, b, Unlimited, nil)
	if err != nil || len(fwd) != 1 || !fwd[0].NoFollow {
		t.Fatalf("got %+v, err %v", fwd, err)
	}
}

func TestInMemoryLimitTruncates(t *testing.T) {
	g := NewInMemory()
	for i := 0; i < 5; i++ {
		g.AddEdge("src.com", "dst.com", false)
	}
	edges, err := g.HostBacklinks(context.Background(), docid.HostNodeID("dst.com"), Limit(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
}

func TestIDToNodeLookup(t *testing.T) {
	g := NewInMemory()
	g.AddEdge("a.com", "b.com", false)

	n, ok, err := g.IDToNode(context.Background(), docid.HostNodeID("a.com"))
	if err != nil || !ok || n.Host != "a.com" {
		t.Fatalf("got %+v ok=%v err=%v", n, ok, err)
	}

	_, ok, err = g.IDToNode(context.Background(), docid.HostNodeID("missing.com"))
	if err != nil || ok {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
}
