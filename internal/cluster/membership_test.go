package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"distributed-search/internal/docid"
)

func TestRefreshingViewInitialSnapshot(t *testing.T) {
	src := NewStaticSource([]Replica{
		{NodeID: "a", Addr: "127.0.0.1:1", ShardID: 0},
		{NodeID: "b", Addr: "127.0.0.1:2", ShardID: 0},
		{NodeID: "c", Addr: "127.0.0.1:3", ShardID: 1},
	})

	view, err := NewRefreshingView(context.Background(), src, 10*time.Millisecond)
	require.NoError(t, err)
	defer view.Stop()

	snap := view.Current()
	require.Len(t, snap.ReplicasOf(0), 2)
	require.Len(t, snap.ReplicasOf(1), 1)
	require.Equal(t, []docid.ShardID{0, 1}, snap.ShardIDs())
}

func TestRefreshingViewPicksUpChanges(t *testing.T) {
	src := NewStaticSource([]Replica{{NodeID: "a", Addr: "x", ShardID: 0}})
	view, err := NewRefreshingView(context.Background(), src, 5*time.Millisecond)
	require.NoError(t, err)
	defer view.Stop()

	view.Start(context.Background())

	src.Set([]Replica{
		{NodeID: "a", Addr: "x", ShardID: 0},
		{NodeID: "b", Addr: "y", ShardID: 0},
	})

	require.Eventually(t, func() bool {
		return len(view.Current().ReplicasOf(0)) == 2
	}, time.Second, 2*time.Millisecond)
}
