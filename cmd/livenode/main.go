// cmd/livenode is the entrypoint for one live-index replica: it accepts
// freshly crawled pages over the ingest RPC, fans each batch out to its
// shard's other replicas for quorum durability, and also answers
// search_initial/retrieve_websites so recently crawled content is
// queryable — structurally adapted from the teacher's cmd/server/main.go
// (flag-driven binary, background maintenance goroutine, graceful
// shutdown) onto the live-index role.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distributed-search/internal/cluster"
	"distributed-search/internal/config"
	"distributed-search/internal/docid"
	"distributed-search/internal/index"
	"distributed-search/internal/liveindex"
	"distributed-search/internal/logging"
	"distributed-search/internal/searchclient"
	"distributed-search/internal/searcher"
	"distributed-search/internal/transport"
)

func main() {
	var cfg config.LiveIndexNode
	var cfgFile string

	root := &cobra.Command{
		Use:   "livenode",
		Short: "Run one live-index replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(cmd, "SEARCH")
			loader.SetConfigFile(cfgFile)
			if err := loader.BindFlags(cmd); err != nil {
				return err
			}
			if err := loader.ReadConfigFile(); err != nil {
				return err
			}
			if err := loader.Unmarshal(&cfg); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.NodeID, "node-id", "live-0-r0", "unique node identifier")
	flags.Uint32Var(&cfg.ShardID, "shard-id", 0, "shard this replica serves")
	flags.StringVar(&cfg.Listen, "listen", ":7300", "ingest RPC listen address")
	flags.StringVar(&cfg.DataDir, "data-dir", "/tmp/livenode", "directory for the WAL and downloaded-set log")
	flags.StringVar(&cfg.ClusterFile, "cluster-file", "", "JSON file listing this shard's other ingest replicas")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable human-readable console logging")
	flags.DurationVar(&cfg.TTL, "ttl", liveindex.DownloadedTTL, "downloaded-set TTL")
	flags.DurationVar(&cfg.CommitInterval, "commit-interval", liveindex.CommitInterval, "WAL truncate interval")
	flags.DurationVar(&cfg.PruneInterval, "prune-interval", liveindex.PruneInterval, "downloaded-set prune interval")
	flags.DurationVar(&cfg.EventLoopInterval, "event-loop-interval", liveindex.EventLoopInterval, "replica-state event loop tick interval")
	flags.Float64Var(&cfg.ConsistencyDefault, "consistency-default", liveindex.DefaultConsistencyFraction, "default fraction of peer replicas that must acknowledge a write")
	flags.StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.LiveIndexNode) error {
	logger, err := logging.New("livenode", cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	wal, err := liveindex.Open(filepath.Join(cfg.DataDir, "wal.log"))
	if err != nil {
		return err
	}
	defer wal.Close()

	downloaded, err := liveindex.OpenDownloadedSet(filepath.Join(cfg.DataDir, "downloaded.log"))
	if err != nil {
		return err
	}
	defer downloaded.Close()

	idx := index.NewMemory(uint64(cfg.ShardID))

	var peerClient *searchclient.Client[liveindex.IngestRequest, liveindex.IngestResponse]
	if cfg.ClusterFile != "" {
		src, err := cluster.LoadStaticSource(cfg.ClusterFile)
		if err != nil {
			return err
		}
		view, err := cluster.NewRefreshingView(context.Background(), src, cluster.DefaultRefreshInterval)
		if err != nil {
			return err
		}
		defer view.Stop()
		view.Start(context.Background())
		peerClient = searchclient.New[liveindex.IngestRequest, liveindex.IngestResponse](view)
	}

	node := liveindex.NewNode(docid.ShardID(cfg.ShardID), wal, downloaded, idx, peerClient, cfg.ConsistencyDefault, logger,
		func() int64 { return time.Now().Unix() },
		liveindex.NodeOptions{
			CommitInterval:    cfg.CommitInterval,
			PruneInterval:     cfg.PruneInterval,
			DownloadedTTL:     cfg.TTL,
			EventLoopInterval: cfg.EventLoopInterval,
		})

	replayed, err := node.ReplayWAL()
	if err != nil {
		return fmt.Errorf("replay wal: %w", err)
	}
	logger.Info("replayed wal", zap.Int("batches", replayed))
	node.SetState(liveindex.Ready)

	svc := liveindex.NewService(node, logger)
	ingestSrv, err := transport.Bind[liveindex.IngestRequest, liveindex.IngestResponse](cfg.Listen)
	if err != nil {
		return fmt.Errorf("bind ingest: %w", err)
	}
	defer ingestSrv.Close()

	queryLocal := searcher.NewLocalService(idx, logger)
	searchAddr := shiftAddrPort(cfg.Listen, 1)
	searchSrv, err := transport.Bind[searcher.SearchInitialRequest, searcher.SearchInitialResponse](searchAddr)
	if err != nil {
		return fmt.Errorf("bind search_initial: %w", err)
	}
	defer searchSrv.Close()

	retrieveAddr := shiftAddrPort(cfg.Listen, 2)
	retrieveSrv, err := transport.Bind[searcher.RetrieveRequest, searcher.RetrieveResponse](retrieveAddr)
	if err != nil {
		return fmt.Errorf("bind retrieve_websites: %w", err)
	}
	defer retrieveSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go liveindex.ServeIngest(ctx, ingestSrv, svc)
	go searcher.ServeSearchInitial(ctx, searchSrv, queryLocal)
	go searcher.ServeRetrieve(ctx, retrieveSrv, queryLocal)
	go node.Run(ctx)

	logger.Info("livenode listening",
		zap.String("node_id", cfg.NodeID),
		zap.Uint32("shard_id", cfg.ShardID),
		zap.String("ingest", ingestSrv.Addr()),
		zap.String("search_initial", searchSrv.Addr()),
		zap.String("retrieve_websites", retrieveSrv.Addr()),
		zap.Float64("consistency_default", cfg.ConsistencyDefault))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down livenode", zap.String("node_id", cfg.NodeID))
	node.Stop()
	return nil
}

func shiftAddrPort(addr string, delta int) string {
	host, port := "", addr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host, port = addr[:i], addr[i+1:]
			break
		}
	}
	n := 0
	fmt.Sscanf(port, "%d", &n)
	return fmt.Sprintf("%s:%d", host, n+delta)
}
