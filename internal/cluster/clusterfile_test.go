package cluster

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadStaticSourceParsesReplicas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"node_id":"n0","addr":"127.0.0.1:9001","shard_id":0},
		{"node_id":"n1","addr":"127.0.0.1:9002","shard_id":1}
	]`), 0644))

	src, err := LoadStaticSource(path)
	require.NoError(t, err)

	members, err := src.Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)

	view, err := NewRefreshingView(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer view.Stop()
	require.Len(t, view.Current().ReplicasOf(1), 1)
}

func TestLoadStaticSourceMissingFile(t *testing.T) {
	_, err := LoadStaticSource("/nonexistent/path.json")
	require.Error(t, err)
}
