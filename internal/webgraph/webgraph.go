// Package webgraph is the external-collaborator seam for the
// host-level link graph: similar-hosts finding and inbound-similarity
// scoring both read ingoing/outgoing host edges through this interface
// rather than owning graph storage themselves. Grounded on
// original_source/crates/core/src/similar_hosts.rs's use of
// RemoteWebgraph/HostBacklinksQuery/HostForwardlinksQuery, collapsed
// from a remote-query builder API to a direct Go interface since this
// module's scope is query-time, not graph storage.
package webgraph

import (
	"context"
	"sync"

	"distributed-search/internal/docid"
)

// Edge is one host-to-host link.
type Edge struct {
	From     docid.NodeID
	To       docid.NodeID
	NoFollow bool
}

// Node is a host-level graph node.
type Node struct {
	ID   docid.NodeID
	Host string
}

// Limit bounds an edge query; Unlimited means "return everything".
type Limit int

const Unlimited Limit = -1

func (l Limit) apply(edges []Edge) []Edge {
	if l < 0 || int(l) >= len(edges) {
		return edges
	}
	return edges[:l]
}

// Graph is the read interface similar-hosts finding and inbound
// similarity need: ingoing/outgoing edges of a host, and id-to-node
// lookup.
type Graph interface {
	HostBacklinks(ctx context.Context, node docid.NodeID, limit Limit) ([]Edge, error)
	HostForwardlinks(ctx context.Context, node docid.NodeID, limit Limit, urlContains []string) ([]Edge, error)
	IDToNode(ctx context.Context, id docid.NodeID) (Node, bool, error)
}

// InMemory is a Graph backed by adjacency lists held entirely in
// memory — adequate for a single shard's webgraph segment or for
// tests; a production deployment backs Graph with the crawler's
// persisted webgraph segments instead (outside this module's scope per
// spec.md §6 "Persisted state").
type InMemory struct {
	mu    sync.RWMutex
	nodes map[docid.NodeID]Node
	out   map[docid.NodeID][]Edge
	in    map[docid.NodeID][]Edge
}

func NewInMemory() *InMemory {
	return &InMemory{
		nodes: make(map[docid.NodeID]Node),
		out:   make(map[docid.NodeID][]Edge),
		in:    make(map[docid.NodeID][]Edge),
	}
}

// AddEdge inserts a directed edge and registers both endpoints as
// nodes, keyed on their host string via docid.HostNodeID.
func (g *InMemory) AddEdge(fromHost, toHost string, noFollow bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	from := docid.HostNodeID(fromHost)
	to := docid.HostNodeID(toHost)
	g.nodes[from] = Node{ID: from, Host: fromHost}
	g.nodes[to] = Node{ID: to, Host: toHost}

	edge := Edge{From: from, To: to, NoFollow: noFollow}
	g.out[from] = append(g.out[from], edge)
	g.in[to] = append(g.in[to], edge)
}

func (g *InMemory) HostBacklinks(_ context.Context, node docid.NodeID, limit Limit) ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return limit.apply(append([]Edge(nil), g.in[node]...)), nil
}

func (g *InMemory) HostForwardlinks(_ context.Context, node docid.NodeID, limit Limit, urlContains []string) ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.out[node]
	if len(urlContains) == 0 {
		return limit.apply(append([]Edge(nil), edges...)), nil
	}

	filtered := make([]Edge, 0, len(edges))
	for _, e := range edges {
		to, ok := g.nodes[e.To]
		if !ok {
			continue
		}
		for _, f := range urlContains {
			if containsSubstring(to.Host, f) {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return limit.apply(filtered), nil
}

func (g *InMemory) IDToNode(_ context.Context, id docid.NodeID) (Node, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok, nil
}

func containsSubstring(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
