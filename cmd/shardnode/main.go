// cmd/shardnode is the entrypoint for one shard-local retriever
// replica: it loads a segment from a crawl snapshot and answers
// search_initial/retrieve_websites RPCs, structurally adapted from the
// teacher's cmd/server/main.go (flag-driven single-role binary,
// graceful shutdown on SIGINT/SIGTERM) onto a completely different
// service surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distributed-search/internal/config"
	"distributed-search/internal/index"
	"distributed-search/internal/logging"
	"distributed-search/internal/searcher"
	"distributed-search/internal/transport"
)

func main() {
	var cfg config.ShardNode
	var cfgFile string

	root := &cobra.Command{
		Use:   "shardnode",
		Short: "Serve one shard of the search index",
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
	flags.StringVar(&cfg.NodeID, "node-id", "shard-0-r0", "unique node identifier")
	flags.Uint32Var(&cfg.ShardID, "shard-id", 0, "shard this replica serves")
	flags.StringVar(&cfg.Listen, "listen", ":7100", "search_initial listen address")
	flags.StringVar(&cfg.DataDir, "data-dir", "/tmp/shardnode", "directory holding docs.jsonl")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable human-readable console logging")
	flags.StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.ShardNode) error {
	logger, err := logging.New("shardnode", cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	idx := index.NewMemory(uint64(cfg.ShardID))
	docsPath := cfg.DataDir + "/docs.jsonl"
	if n, err := index.LoadDocumentsJSONL(idx, docsPath); err != nil {
		logger.Warn("no documents loaded at startup", zap.String("path", docsPath), zap.Error(err))
	} else {
		logger.Info("loaded documents", zap.Int("count", n))
	}

	svc := searcher.NewLocalService(idx, logger)

	searchSrv, err := transport.Bind[searcher.SearchInitialRequest, searcher.SearchInitialResponse](cfg.Listen)
	if err != nil {
		return fmt.Errorf("bind search_initial: %w", err)
	}
	defer searchSrv.Close()

	retrieveAddr := shiftPort(cfg.Listen, 1)
	retrieveSrv, err := transport.Bind[searcher.RetrieveRequest, searcher.RetrieveResponse](retrieveAddr)
	if err != nil {
		return fmt.Errorf("bind retrieve_websites: %w", err)
	}
	defer retrieveSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go searcher.ServeSearchInitial(ctx, searchSrv, svc)
	go searcher.ServeRetrieve(ctx, retrieveSrv, svc)

	logger.Info("shardnode listening",
		zap.String("node_id", cfg.NodeID),
		zap.Uint32("shard_id", cfg.ShardID),
		zap.String("search_initial", searchSrv.Addr()),
		zap.String("retrieve_websites", retrieveSrv.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down shardnode", zap.String("node_id", cfg.NodeID))
	time.Sleep(100 * time.Millisecond) // let in-flight RPCs finish their single response
	return nil
}

// shiftPort derives the retrieve_websites listen address from the
// search_initial one by incrementing the port, so a single --listen
// flag is enough to stand up both RPC endpoints of a shard.
func shiftPort(addr string, delta int) string {
	host, port := splitHostPort(addr)
	n := 0
	fmt.Sscanf(port, "%d", &n)
	return fmt.Sprintf("%s:%d", host, n+delta)
}

func splitHostPort(addr string) (host, port string) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:]
		}
	}
	return "", addr
}
