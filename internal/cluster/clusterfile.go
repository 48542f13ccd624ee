package cluster

import (
	"encoding/json"
	"fmt"
	"os"

	"distributed-search/internal/docid"
)

// LoadStaticSource reads a JSON array of Replica ({"node_id","addr",
// "shard_id"}) from path and wraps it in a StaticSource — the file-
// backed topology a single deployment uses in place of the gossip-based
// membership original_source's cluster runs on (see cluster.Source's
// doc comment).
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster file %s: %w", path, err)
	}
	var entries []struct {
		NodeID  string `json:"node_id"`
		Addr    string `json:"addr"`
		ShardID uint32 `json:"shard_id"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse cluster file %s: %w", path, err)
	}
	replicas := make([]Replica, len(entries))
	for i, e := range entries {
		replicas[i] = Replica{NodeID: e.NodeID, Addr: e.Addr, ShardID: docid.ShardID(e.ShardID)}
	}
	return NewStaticSource(replicas), nil
}
