package liveindex

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"distributed-search/internal/docid"
	"distributed-search/internal/errkind"
	"distributed-search/internal/index"
	"distributed-search/internal/metrics"
	"distributed-search/internal/searchclient"
)

// DefaultConsistencyFraction is the fraction of known peer replicas
// that must acknowledge a write when a caller doesn't specify one.
const DefaultConsistencyFraction = 0.5

// ReplicaState is a live-index replica's lifecycle stage, grounded on
// original_source/crates/core/src/live_index.rs's LiveIndexState: a
// fresh replica starts InSetup (writes only reach its WAL) and becomes
// Ready once its own WAL has been replayed into the local index; no
// index is copied from peer replicas. While ReadOnly, Ingest rejects
// every write. Nothing in this package enters ReadOnly on its own;
// only SetState does.
type ReplicaState int

const (
	InSetup ReplicaState = iota
	Ready
	ReadOnly
)

func (s ReplicaState) String() string {
	switch s {
	case InSetup:
		return "in_setup"
	case Ready:
		return "ready"
	case ReadOnly:
		return "read_only"
	default:
		return "unknown"
	}
}

// Tuning constants for the quorum-write and maintenance loops, matching
// original_source/crates/core/src/entrypoint/live_index.rs.
const (
	IndexingTimeout   = 60 * time.Second
	IndexingRetries   = 3
	CommitInterval    = 5 * time.Minute
	PruneInterval     = time.Hour
	DownloadedTTL     = 60 * 24 * time.Hour
	EventLoopInterval = 5 * time.Second
)

// LocalIndexer is the subset of index.Memory a live-index node writes
// through: newly ingested pages land here immediately, ahead of any
// background segment-merge a production shard would run (out of scope
// per spec.md §1).
type LocalIndexer interface {
	Insert(doc index.Document) index.WebpagePointer
}

// Node is one live-index replica: durably logs every ingested batch,
// applies it to its local index, and fans the batch out to the replicas
// the cluster membership lists for its shard, requiring
// ceil(peer_count * consistencyFraction) acknowledgements from peers
// that report Ready before a caller's Ingest call returns success.
// peer_count is every listed replica of the shard whatever its state:
// the membership carries no replica state — grounded on
// index_webpages_in_replicas in
// original_source/crates/core/src/entrypoint/live_index.rs.
type Node struct {
	mu    sync.RWMutex
	state ReplicaState

	shardID            docid.ShardID
	wal                *WAL
	downloaded         *DownloadedSet
	index              LocalIndexer
	peerClient         *searchclient.Client[IngestRequest, IngestResponse]
	consistencyDefault float64
	logger             *zap.Logger

	commitInterval    time.Duration
	pruneInterval     time.Duration
	downloadedTTL     time.Duration
	eventLoopInterval time.Duration

	nowUnix func() int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NodeOptions overrides Run's maintenance intervals and the
// downloaded-set TTL; a zero value in any field falls back to the
// package default, so cmd/livenode can expose them as flags while
// tests and simple callers can pass a zero-value NodeOptions.
type NodeOptions struct {
	CommitInterval    time.Duration
	PruneInterval     time.Duration
	DownloadedTTL     time.Duration
	EventLoopInterval time.Duration
}

// NewNode builds a node in InSetup state. peerClient may be nil for a
// single-replica (quorum=1) deployment or in tests that only exercise
// the local ingest path.
func NewNode(
	shardID docid.ShardID,
	wal *WAL,
	downloaded *DownloadedSet,
	idx LocalIndexer,
	peerClient *searchclient.Client[IngestRequest, IngestResponse],
	consistencyDefault float64,
	logger *zap.Logger,
	nowUnix func() int64,
	opts NodeOptions,
) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	if consistencyDefault <= 0 {
		consistencyDefault = DefaultConsistencyFraction
	}
	if opts.CommitInterval <= 0 {
		opts.CommitInterval = CommitInterval
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = PruneInterval
	}
	if opts.DownloadedTTL <= 0 {
		opts.DownloadedTTL = DownloadedTTL
	}
	if opts.EventLoopInterval <= 0 {
		opts.EventLoopInterval = EventLoopInterval
	}
	return &Node{
		state:              InSetup,
		shardID:            shardID,
		wal:                wal,
		downloaded:         downloaded,
		index:              idx,
		peerClient:         peerClient,
		consistencyDefault: consistencyDefault,
		logger:             logger,
		commitInterval:     opts.CommitInterval,
		pruneInterval:      opts.PruneInterval,
		downloadedTTL:      opts.DownloadedTTL,
		eventLoopInterval:  opts.EventLoopInterval,
		nowUnix:            nowUnix,
		stop:               make(chan struct{}),
	}
}

// State returns the node's current replica state.
func (n *Node) State() ReplicaState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// SetState transitions the node's replica state (e.g. InSetup -> Ready
// once WAL replay has caught it up, called by cmd/livenode at startup).
func (n *Node) SetState(s ReplicaState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

// ReplayWAL applies every batch already on disk to the local index
// without re-fanning-out or re-logging, the startup catch-up path a
// node runs before leaving InSetup.
func (n *Node) ReplayWAL() (int, error) {
	batches, err := n.wal.ReadAll()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, batch := range batches {
		for _, p := range batch {
			n.applyLocally(p)
			count++
		}
	}
	return count, nil
}

// Ingest durably logs pages and, once the node is Ready, applies them
// to the local index and — if this call originated from a client
// rather than a peer forwarding a replicated write — fans them out to
// every replica the membership lists for the shard (searchclient.All),
// blocking until ceil(PeerCount * consistencyFraction) of them reply OK
// in Ready state or IndexingRetries attempts are exhausted. PeerCount
// counts every listed replica whatever its state, and the fan-out does
// not skip replicas that are not Ready. consistencyFraction <= 0 uses the node's configured
// default. While InSetup, a write is only appended to the WAL — never
// applied to the index or fanned out — so ReplayWAL's catch-up pass is
// the one place that ever inserts it, per spec.md §4.6.
func (n *Node) Ingest(ctx context.Context, pages []IndexableWebpage, fromPeer bool, consistencyFraction float64) error {
	if n.State() == ReadOnly {
		return errkind.New(errkind.InsufficientReplication, "node is read-only")
	}

	fresh := n.dedup(pages)
	if len(fresh) == 0 {
		return nil
	}

	if err := n.wal.Append(fresh); err != nil {
		return err
	}

	if n.State() == InSetup {
		return nil
	}

	for _, p := range fresh {
		n.applyLocally(p)
	}

	if fromPeer || n.peerClient == nil {
		return nil
	}
	if consistencyFraction <= 0 {
		consistencyFraction = n.consistencyDefault
	}

	peerCount := n.peerClient.PeerCount(n.shardID)
	required := int(math.Ceil(float64(peerCount) * consistencyFraction))

	acked := 0
	var lastErr error
	for attempt := 0; attempt < IndexingRetries && acked < required; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, IndexingTimeout)
		results := n.peerClient.SendToShard(reqCtx, n.shardID, IngestRequest{Pages: fresh, FromPeer: true}, searchclient.All{})
		cancel()

		acked = 0
		for _, r := range results {
			if r.OK && r.State == Ready.String() {
				acked++
			}
		}
		if acked >= required {
			break
		}
		lastErr = errkind.New(errkind.InsufficientReplication, "retrying quorum write")
	}

	shardLabel := strconv.FormatUint(uint64(n.shardID), 10)
	if acked < required {
		if lastErr == nil {
			lastErr = errkind.New(errkind.InsufficientReplication, "no peer replicas acknowledged")
		}
		metrics.QuorumAcks.WithLabelValues(shardLabel, "insufficient").Observe(float64(acked))
		n.logger.Error("live-index write missed quorum",
			zap.Int("acked", acked),
			zap.Int("required", required),
			zap.Uint32("shard", uint32(n.shardID)))
		return lastErr
	}
	metrics.QuorumAcks.WithLabelValues(shardLabel, "ok").Observe(float64(acked))
	return nil
}

// dedup drops pages already present in the downloaded set and marks the
// survivors, per spec.md §6's "a page already ingested is a no-op."
func (n *Node) dedup(pages []IndexableWebpage) []IndexableWebpage {
	ts := n.nowUnix()
	fresh := make([]IndexableWebpage, 0, len(pages))
	for _, p := range pages {
		if n.downloaded.Contains(p.URL) {
			continue
		}
		if err := n.downloaded.Mark(p.URL, ts); err != nil {
			n.logger.Error("mark downloaded failed", zap.Error(err))
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh
}

func (n *Node) applyLocally(p IndexableWebpage) {
	n.index.Insert(index.Document{
		URL:             p.URL,
		Site:            p.Site,
		Title:           p.Title,
		Body:            p.Body,
		HostCentrality:  p.HostCentrality,
		PageCentrality:  p.PageCentrality,
		IsHomepage:      p.IsHomepage,
		FetchTimeMs:     p.FetchTimeMs,
		UpdateTimestamp: p.UpdateTimestamp,
		TrackerScore:    p.TrackerScore,
		HasAds:          p.HasAds,
		Region:          p.Region,
		Simhash:         p.Simhash,
	})
	metrics.IngestRate.WithLabelValues(strconv.FormatUint(uint64(n.shardID), 10), n.State().String()).Inc()
}

// Run starts the background commit/prune/event-loop maintenance
// goroutines and blocks until ctx is cancelled or Stop is called.
func (n *Node) Run(ctx context.Context) {
	commit := time.NewTicker(n.commitInterval)
	prune := time.NewTicker(n.pruneInterval)
	tick := time.NewTicker(n.eventLoopInterval)
	defer commit.Stop()
	defer prune.Stop()
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stop:
			return
		case <-commit.C:
			if err := n.wal.Truncate(); err != nil {
				n.logger.Error("wal truncate failed", zap.Error(err))
			}
		case <-prune.C:
			cutoff := n.nowUnix() - int64(n.downloadedTTL.Seconds())
			if err := n.downloaded.Prune(cutoff); err != nil {
				n.logger.Error("downloaded-set prune failed", zap.Error(err))
			}
		case <-tick.C:
			if n.State() == InSetup {
				if _, err := n.ReplayWAL(); err != nil {
					n.logger.Error("wal replay failed", zap.Error(err))
					continue
				}
				n.SetState(Ready)
			}
		}
	}
}

// Stop halts Run's maintenance loop. Safe to call more than once.
func (n *Node) Stop() {
	n.stopOnce.Do(func() { close(n.stop) })
}
