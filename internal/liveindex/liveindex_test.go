package liveindex

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"distributed-search/internal/cluster"
	"distributed-search/internal/index"
	"distributed-search/internal/searchclient"
	"distributed-search/internal/transport"
)

func fixedNow(ts int64) func() int64 {
	return func() int64 { return ts }
}

func openNode(t *testing.T, dir string, consistencyFraction float64, peerClient *searchclient.Client[IngestRequest, IngestResponse]) *Node {
	t.Helper()
	wal, err := Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	t.Cleanup(func() { wal.Close() })

	ds, err := OpenDownloadedSet(filepath.Join(dir, "downloaded.log"))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	idx := index.NewMemory(0)
	return NewNode(0, wal, ds, idx, peerClient, consistencyFraction, nil, fixedNow(1000), NodeOptions{})
}

func TestWALAppendAndReadAllRoundTrips(t *testing.T) {
	dir := t.TempDir()
	wal, err := Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	defer wal.Close()

	batch1 := []IndexableWebpage{{URL: "https://a.example/1", Title: "a"}}
	batch2 := []IndexableWebpage{{URL: "https://a.example/2", Title: "b"}, {URL: "https://a.example/3", Title: "c"}}

	require.NoError(t, wal.Append(batch1))
	require.NoError(t, wal.Append(batch2))

	batches, err := wal.ReadAll()
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, batch1, batches[0])
	require.Equal(t, batch2, batches[1])
}

func TestWALTruncateEmptiesLog(t *testing.T) {
	dir := t.TempDir()
	wal, err := Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	defer wal.Close()

	require.NoError(t, wal.Append([]IndexableWebpage{{URL: "https://a.example/1"}}))
	require.NoError(t, wal.Truncate())

	batches, err := wal.ReadAll()
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestDownloadedSetDedupsAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downloaded.log")

	ds, err := OpenDownloadedSet(path)
	require.NoError(t, err)

	require.False(t, ds.Contains("https://a.example/1"))
	require.NoError(t, ds.Mark("https://a.example/1", 1000))
	require.True(t, ds.Contains("https://a.example/1"))
	require.NoError(t, ds.Close())

	reopened, err := OpenDownloadedSet(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.True(t, reopened.Contains("https://a.example/1"))
	require.False(t, reopened.Contains("https://b.example/2"))
}

func TestDownloadedSetPruneDropsStaleEntries(t *testing.T) {
	dir := t.TempDir()
	ds, err := OpenDownloadedSet(filepath.Join(dir, "downloaded.log"))
	require.NoError(t, err)
	defer ds.Close()

	require.NoError(t, ds.Mark("https://old.example/1", 100))
	require.NoError(t, ds.Mark("https://new.example/2", 10_000))

	require.NoError(t, ds.Prune(5_000))

	require.False(t, ds.Contains("https://old.example/1"))
	require.True(t, ds.Contains("https://new.example/2"))
}

func TestNodeIngestAppliesLocallyWithoutPeers(t *testing.T) {
	node := openNode(t, t.TempDir(), 1, nil)
	node.SetState(Ready)

	err := node.Ingest(context.Background(), []IndexableWebpage{
		{URL: "https://a.example/1", Site: "a.example", Title: "hello world", Body: "hello world body"},
	}, false, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, node.index.(*index.Memory).NumDocuments())

	count, err := node.ReplayWAL()
	require.NoError(t, err)
	require.Equal(t, 1, count, "ReplayWAL replays the same WAL batch even though it was already applied live")
}

func TestNodeIngestDedupsAlreadyDownloaded(t *testing.T) {
	node := openNode(t, t.TempDir(), 1, nil)
	node.SetState(Ready)
	page := IndexableWebpage{URL: "https://a.example/1", Site: "a.example", Title: "hello"}

	require.NoError(t, node.Ingest(context.Background(), []IndexableWebpage{page}, false, 0))
	require.NoError(t, node.Ingest(context.Background(), []IndexableWebpage{page}, false, 0))

	batches, err := node.wal.ReadAll()
	require.NoError(t, err)
	require.Len(t, batches, 1, "second ingest of the same URL must not append a second WAL batch")
}

// TestNodeIngestInSetupOnlyAppendsWAL covers spec.md §4.6's InSetup
// branch: a write received before the node is Ready must land only in
// the WAL, never the local index, so ReplayWAL is the sole path that
// ever inserts it and a later transition to Ready can't double-apply.
func TestNodeIngestInSetupOnlyAppendsWAL(t *testing.T) {
	node := openNode(t, t.TempDir(), 1, nil)
	require.Equal(t, InSetup, node.State())

	err := node.Ingest(context.Background(), []IndexableWebpage{
		{URL: "https://a.example/1", Site: "a.example", Title: "hello world", Body: "hello world body"},
	}, false, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, node.index.(*index.Memory).NumDocuments(), "InSetup must not apply writes to the local index")

	count, err := node.ReplayWAL()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.EqualValues(t, 1, node.index.(*index.Memory).NumDocuments())
}

func startIngestPeer(t *testing.T, ok bool) string {
	t.Helper()
	dir := t.TempDir()
	node := openNode(t, dir, 1, nil)
	if ok {
		node.SetState(Ready)
	}
	svc := NewService(node, nil)

	srv, err := transport.Bind[IngestRequest, IngestResponse](":0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if ok {
		go ServeIngest(ctx, srv, svc)
	} else {
		go func() {
			for {
				req, err := srv.Accept()
				if err != nil {
					return
				}
				_ = req.Respond(IngestResponse{OK: false})
			}
		}()
	}
	return srv.Addr()
}

// TestNodeIngestReachesQuorumAcrossPeers mirrors the live-index
// quorum invariant: a client-originated ingest only succeeds once
// ceil(ready_peer_count * consistency_fraction) peers have durably
// logged the batch.
func TestNodeIngestReachesQuorumAcrossPeers(t *testing.T) {
	goodAddr := startIngestPeer(t, true)

	src := cluster.NewStaticSource([]cluster.Replica{{NodeID: "peer", Addr: goodAddr, ShardID: 0}})
	view, err := cluster.NewRefreshingView(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer view.Stop()

	peerClient := searchclient.New[IngestRequest, IngestResponse](view)
	node := openNode(t, t.TempDir(), 1, peerClient)
	node.SetState(Ready)

	err = node.Ingest(context.Background(), []IndexableWebpage{{URL: "https://a.example/1", Title: "x"}}, false, 1.0)
	require.NoError(t, err)
}

// TestNodeIngestFailsQuorumWhenPeersReject covers the inverse: the
// lone peer never acknowledges, so a consistency_fraction of 1 can
// never be reached and Ingest must report insufficient replication
// rather than silently succeeding.
func TestNodeIngestFailsQuorumWhenPeersReject(t *testing.T) {
	badAddr := startIngestPeer(t, false)

	src := cluster.NewStaticSource([]cluster.Replica{{NodeID: "peer", Addr: badAddr, ShardID: 0}})
	view, err := cluster.NewRefreshingView(context.Background(), src, time.Hour)
	require.NoError(t, err)
	defer view.Stop()

	peerClient := searchclient.New[IngestRequest, IngestResponse](view)
	node := openNode(t, t.TempDir(), 1, peerClient)
	node.SetState(Ready)

	err = node.Ingest(context.Background(), []IndexableWebpage{{URL: "https://a.example/1", Title: "x"}}, false, 1.0)
	require.Error(t, err)
}

func TestNodeReplicatedWriteDoesNotRefanOut(t *testing.T) {
	node := openNode(t, t.TempDir(), 1, nil)
	node.SetState(Ready)
	err := node.Ingest(context.Background(), []IndexableWebpage{{URL: "https://a.example/1", Title: "x"}}, true, 0)
	require.NoError(t, err, "a peer-forwarded write must apply locally without requiring its own quorum fan-out")
}

func TestEventLoopPromotesInSetupToReady(t *testing.T) {
	node := openNode(t, t.TempDir(), 1, nil)
	require.Equal(t, InSetup, node.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go node.Run(ctx)
	defer node.Stop()

	require.Eventually(t, func() bool {
		return node.State() == Ready
	}, EventLoopInterval+2*time.Second, 50*time.Millisecond)
}
