// cmd/searchd is the HTTP front end: it composes a DistributedSearcher
// from the configured shard clusters and serves /search over gin,
// structurally adapted from the teacher's cmd/server/main.go (gin
// router setup, graceful shutdown) onto the query-time core's service
// surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distributed-search/internal/api"
	"distributed-search/internal/bangs"
	"distributed-search/internal/cluster"
	"distributed-search/internal/config"
	"distributed-search/internal/logging"
	"distributed-search/internal/searchclient"
	"distributed-search/internal/searcher"
	"distributed-search/internal/similarhosts"
	"distributed-search/internal/webgraph"
)

func main() {
	var cfg config.SearchFrontend
	var searchClusterFile, retrieveClusterFile, cfgFile string

	root := &cobra.Command{
		Use:   "searchd",
		Short: "Serve the distributed search HTTP API",
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
			return run(cfg, searchClusterFile, retrieveClusterFile)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.Listen, "listen", ":8080", "HTTP listen address")
	flags.StringVar(&searchClusterFile, "search-cluster-file", "", "JSON file listing search_initial replicas per shard")
	flags.StringVar(&retrieveClusterFile, "retrieve-cluster-file", "", "JSON file listing retrieve_websites replicas per shard")
	flags.StringVar(&cfg.BangsFile, "bangs-file", "", "JSON file listing bang redirects")
	flags.StringVar(&cfg.WebgraphFile, "webgraph-file", "", "newline-delimited-JSON file listing host edges for similar-hosts")
	flags.IntVar(&cfg.MaxSimilarHosts, "max-similar-hosts", 20, "max results returned by the similar-hosts finder")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable human-readable console logging")
	flags.Int64Var(&cfg.MaxInFlight, "max-in-flight", 64, "global concurrent search limit (<=0 disables)")
	flags.DurationVar(&cfg.RefreshInterval, "refresh-interval", cluster.DefaultRefreshInterval, "cluster membership refresh interval")
	flags.IntVar(&cfg.DefaultNumResult, "default-num-results", 20, "results per page when the client omits num")
	flags.StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.SearchFrontend, searchClusterFile, retrieveClusterFile string) error {
	logger, err := logging.New("searchd", cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if searchClusterFile == "" || retrieveClusterFile == "" {
		return fmt.Errorf("--search-cluster-file and --retrieve-cluster-file are required")
	}

	ctx := context.Background()

	searchSrc, err := cluster.LoadStaticSource(searchClusterFile)
	if err != nil {
		return err
	}
	searchView, err := cluster.NewRefreshingView(ctx, searchSrc, cfg.RefreshInterval)
	if err != nil {
		return err
	}
	searchView.Start(ctx)
	defer searchView.Stop()

	retrieveSrc, err := cluster.LoadStaticSource(retrieveClusterFile)
	if err != nil {
		return err
	}
	retrieveView, err := cluster.NewRefreshingView(ctx, retrieveSrc, cfg.RefreshInterval)
	if err != nil {
		return err
	}
	retrieveView.Start(ctx)
	defer retrieveView.Stop()

	searchClient := searchclient.New[searcher.SearchInitialRequest, searcher.SearchInitialResponse](searchView,
		searchclient.WithLogger[searcher.SearchInitialRequest, searcher.SearchInitialResponse](logger))
	retrieveClient := searchclient.New[searcher.RetrieveRequest, searcher.RetrieveResponse](retrieveView,
		searchclient.WithLogger[searcher.RetrieveRequest, searcher.RetrieveResponse](logger))

	var bangTable *bangs.Table
	if cfg.BangsFile != "" {
		bangTable, err = loadBangs(cfg.BangsFile)
		if err != nil {
			return err
		}
	}

	var graph webgraph.Graph
	var finder *similarhosts.Finder
	if cfg.WebgraphFile != "" {
		inMemory := webgraph.NewInMemory()
		n, err := webgraph.LoadEdgesJSONL(inMemory, cfg.WebgraphFile)
		if err != nil {
			return err
		}
		logger.Info("loaded webgraph edges", zap.Int("count", n))
		graph = inMemory
		finder = similarhosts.NewFinder(graph, cfg.MaxSimilarHosts)
	}

	distributed := searcher.NewDistributedSearcher(searchClient, retrieveClient, bangTable, graph)

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.Logger(logger), api.Recovery(logger))

	handler := api.NewHandler(distributed, finder, logger, cfg.MaxInFlight, cfg.DefaultNumResult)
	handler.Register(router)

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("searchd listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down searchd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadBangs(path string) (*bangs.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bangs file: %w", err)
	}
	var entries []bangs.Bang
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse bangs file: %w", err)
	}
	return bangs.NewTable(entries), nil
}
