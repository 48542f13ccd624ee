package searchclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"distributed-search/internal/cluster"
	"distributed-search/internal/docid"
	"distributed-search/internal/transport"
)

type pingRequest struct{ N int }
type pingResponse struct{ NodeID string }

func startEchoNode(t *testing.T, nodeID string, fail bool) string {
	t.Helper()
	srv, err := transport.Bind[pingRequest, pingResponse](":0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	go func() {
		for {
			req, err := srv.Accept()
			if err != nil {
				return
			}
			if fail {
				req.Respond(pingResponse{}) //nolint:errcheck
				continue
			}
			_ = req.Respond(pingResponse{NodeID: nodeID})
		}
	}()
	return srv.Addr()
}

// TestSendToShardDropsFailingReplicas mirrors
// original_source/.../sonic/replication.rs's ReplicatedClient::send
// tolerating partial replica failure: a dead replica is dropped from
// the aggregate rather than failing the whole call.
func TestSendToShardDropsFailingReplicas(t *testing.T) {
	good := startEchoNode(t, "good", false)

	src := cluster.NewStaticSource([]cluster.Replica{
		{NodeID: "good", Addr: good, ShardID: 0},
		{NodeID: "dead", Addr: "127.0.0.1:1", ShardID: 0},
	})
	view, err := cluster.NewRefreshingView(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer view.Stop()

	c := New[pingRequest, pingResponse](view, WithTimeouts[pingRequest, pingResponse](50*time.Millisecond, 50*time.Millisecond))

	res := c.SendToShard(context.Background(), 0, pingRequest{N: 1}, All{})
	require.Len(t, res, 1)
	require.Equal(t, "good", res[0].NodeID)
}

// TestSendFansOutAcrossShards checks the (shard_id, []response) aggregate
// shape spec.md §4.2 requires from ShardedClient::send.
func TestSendFansOutAcrossShards(t *testing.T) {
	s0 := startEchoNode(t, "s0", false)
	s1 := startEchoNode(t, "s1", false)

	src := cluster.NewStaticSource([]cluster.Replica{
		{NodeID: "a", Addr: s0, ShardID: 0},
		{NodeID: "b", Addr: s1, ShardID: 1},
	})
	view, err := cluster.NewRefreshingView(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer view.Stop()

	c := New[pingRequest, pingResponse](view, WithTimeouts[pingRequest, pingResponse](50*time.Millisecond, 50*time.Millisecond))

	results := c.Send(context.Background(), pingRequest{N: 7}, AllShards{}, RandomOne{})
	require.Len(t, results, 2)

	byShard := map[docid.ShardID][]pingResponse{}
	for _, r := range results {
		byShard[r.ShardID] = r.Responses
	}
	require.Len(t, byShard[0], 1)
	require.Len(t, byShard[1], 1)
}
