// Package cluster tracks which replicas serve which shard. It adapts
// the teacher's internal/cluster/membership.go (a flat nodeID -> Node
// map) generalized to a shard_id -> []replica map, and caches the
// current view behind go.uber.org/atomic.Value so readers never block
// on a refresh (§9 design note "shared membership snapshot").
package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"distributed-search/internal/docid"
)

// Replica is one process serving one shard of one service (e.g. the
// shard-local search service, or a live-index shard).
type Replica struct {
	NodeID  string
	Addr    string
	ShardID docid.ShardID
}

// Snapshot is the cluster membership view at one instant: every shard's
// replica set.
type Snapshot struct {
	Shards map[docid.ShardID][]Replica
}

// ReplicasOf returns the replica set for a shard, or nil if unknown.
func (s *Snapshot) ReplicasOf(shard docid.ShardID) []Replica {
	if s == nil {
		return nil
	}
	return s.Shards[shard]
}

// ShardIDs returns every shard id present in the snapshot, in ascending order.
func (s *Snapshot) ShardIDs() []docid.ShardID {
	out := make([]docid.ShardID, 0, len(s.Shards))
	for id := range s.Shards {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Source is the external-collaborator seam spec.md §6 implies: a
// cluster-membership source the refreshing client polls. A static file-
// or flag-backed list stands in for the gossip-based cluster the
// original system runs (original_source/crates/core/src/distributed/cluster.rs).
type Source interface {
	Members(ctx context.Context) ([]Replica, error)
}

// StaticSource is a fixed, in-memory membership list — the simplest
// Source implementation, adequate for a single deployment's static
// topology file.
type StaticSource struct {
	mu       sync.RWMutex
	replicas []Replica
}

func NewStaticSource(replicas []Replica) *StaticSource {
	return &StaticSource{replicas: append([]Replica(nil), replicas...)}
}

func (s *StaticSource) Members(_ context.Context) ([]Replica, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Replica(nil), s.replicas...), nil
}

// Set replaces the membership list wholesale.
func (s *StaticSource) Set(replicas []Replica) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replicas = append([]Replica(nil), replicas...)
}

// RefreshingView caches a Snapshot behind an atomic.Value, refreshed
// from Source on a ticker at the configured interval (default 60s per
// spec.md §4.2 "Cluster refresh").
type RefreshingView struct {
	source   Source
	interval time.Duration
	snapshot atomic.Value // *Snapshot

	stop chan struct{}
	once sync.Once
}

const DefaultRefreshInterval = 60 * time.Second

// NewRefreshingView builds a view and performs one synchronous refresh
// so the first caller never observes a nil snapshot.
func NewRefreshingView(ctx context.Context, source Source, interval time.Duration) (*RefreshingView, error) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	v := &RefreshingView{source: source, interval: interval, stop: make(chan struct{})}
	if err := v.refresh(ctx); err != nil {
		return nil, fmt.Errorf("initial membership refresh: %w", err)
	}
	return v, nil
}

// Start runs the background refresh ticker until Stop is called.
func (v *RefreshingView) Start(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = v.refresh(ctx)
			case <-v.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the background refresh loop. Safe to call more than once.
func (v *RefreshingView) Stop() {
	v.once.Do(func() { close(v.stop) })
}

func (v *RefreshingView) refresh(ctx context.Context) error {
	replicas, err := v.source.Members(ctx)
	if err != nil {
		return err
	}
	shards := make(map[docid.ShardID][]Replica)
	for _, r := range replicas {
		shards[r.ShardID] = append(shards[r.ShardID], r)
	}
	v.snapshot.Store(&Snapshot{Shards: shards})
	return nil
}

// Current returns the last-refreshed snapshot without blocking.
func (v *RefreshingView) Current() *Snapshot {
	s, _ := v.snapshot.Load().(*Snapshot)
	return s
}
