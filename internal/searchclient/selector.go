// Package searchclient is the replicated/sharded client used to fan a
// request out to shard replicas, grounded on
// original_source/crates/core/src/distributed/sonic/replication.rs
// (RemoteClient, ReplicaSelector, ShardSelector, ReplicatedClient,
// ShardedClient), translated from Rust trait objects + generics to Go
// generics + interfaces.
package searchclient

import (
	"math/rand"

	"distributed-search/internal/cluster"
	"distributed-search/internal/docid"
)

// ReplicaSelector picks which replicas of one shard to address.
type ReplicaSelector interface {
	Select(replicas []cluster.Replica) []cluster.Replica
}

// RandomOne picks one replica uniformly at random.
type RandomOne struct{}

func (RandomOne) Select(replicas []cluster.Replica) []cluster.Replica {
	if len(replicas) == 0 {
		return nil
	}
	return []cluster.Replica{replicas[rand.Intn(len(replicas))]}
}

// All addresses every replica — used for idempotent reads and for the
// live-index node's replicated write fan-out.
type All struct{}

func (All) Select(replicas []cluster.Replica) []cluster.Replica {
	out := make([]cluster.Replica, len(replicas))
	copy(out, replicas)
	return out
}

// ShardSelector picks which shards of a service to address, given the
// current shard map.
type ShardSelector interface {
	Select(shards map[docid.ShardID][]cluster.Replica) []docid.ShardID
}

// AllShards addresses every shard.
type AllShards struct{}

func (AllShards) Select(shards map[docid.ShardID][]cluster.Replica) []docid.ShardID {
	out := make([]docid.ShardID, 0, len(shards))
	for id := range shards {
		out = append(out, id)
	}
	return out
}

// RandomShard addresses one shard, picked uniformly at random.
type RandomShard struct{}

func (RandomShard) Select(shards map[docid.ShardID][]cluster.Replica) []docid.ShardID {
	ids := (AllShards{}).Select(shards)
	if len(ids) == 0 {
		return nil
	}
	return []docid.ShardID{ids[rand.Intn(len(ids))]}
}

// SpecificShard addresses exactly one named shard.
type SpecificShard struct {
	ID docid.ShardID
}

func (s SpecificShard) Select(shards map[docid.ShardID][]cluster.Replica) []docid.ShardID {
	if _, ok := shards[s.ID]; !ok {
		return nil
	}
	return []docid.ShardID{s.ID}
}
