// Package config loads the layered configuration (flags > env > file)
// for each binary. The teacher (cmd/server/main.go) parses everything
// from bare flag.String calls; we keep cobra for subcommand/flag wiring
// (as the teacher's cmd/client already does) but load the resulting
// values through viper so a config file and environment variables can
// also supply them, the way grafana-tempo's cmd/tempo loader works.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ShardNode is the configuration of one shard-local retriever replica.
type ShardNode struct {
	NodeID      string        `mapstructure:"node_id"`
	ShardID     uint32        `mapstructure:"shard_id"`
	Listen      string        `mapstructure:"listen"`
	DataDir     string        `mapstructure:"data_dir"`
	ClusterFile string        `mapstructure:"cluster_file"`
	Debug       bool          `mapstructure:"debug"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout"`
	ReqTimeout  time.Duration `mapstructure:"req_timeout"`
}

// LiveIndexNode is the configuration of one live-index replica.
type LiveIndexNode struct {
	NodeID             string        `mapstructure:"node_id"`
	ShardID            uint32        `mapstructure:"shard_id"`
	Listen             string        `mapstructure:"listen"`
	DataDir            string        `mapstructure:"data_dir"`
	ClusterFile        string        `mapstructure:"cluster_file"`
	Debug              bool          `mapstructure:"debug"`
	TTL                time.Duration `mapstructure:"ttl"`
	CommitInterval     time.Duration `mapstructure:"commit_interval"`
	PruneInterval      time.Duration `mapstructure:"prune_interval"`
	EventLoopInterval  time.Duration `mapstructure:"event_loop_interval"`
	ConsistencyDefault float64       `mapstructure:"consistency_default"`
}

// SearchFrontend is the configuration of the HTTP front end (cmd/searchd).
type SearchFrontend struct {
	Listen           string        `mapstructure:"listen"`
	BangsFile        string        `mapstructure:"bangs_file"`
	WebgraphFile     string        `mapstructure:"webgraph_file"`
	MaxSimilarHosts  int           `mapstructure:"max_similar_hosts"`
	Debug            bool          `mapstructure:"debug"`
	MaxInFlight      int64         `mapstructure:"max_in_flight"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	DefaultNumResult int           `mapstructure:"default_num_results"`
}

// Loader wraps a viper instance seeded from cobra flags, an optional
// config file, and environment variables prefixed SEARCH_.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader with environment variables bound. Call
// BindFlags to add cmd's flags to the precedence chain.
func NewLoader(cmd *cobra.Command, envPrefix string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlags binds every flag of cmd into the loader's precedence chain.
func (l *Loader) BindFlags(cmd *cobra.Command) error {
	return l.v.BindPFlags(cmd.Flags())
}

// SetConfigFile points the loader at an optional config file (yaml/json/toml).
func (l *Loader) SetConfigFile(path string) {
	if path == "" {
		return
	}
	l.v.SetConfigFile(path)
}

// ReadConfigFile reads the config file if one was set; with no file set
// it does nothing. A file that was set but cannot be read is an error.
func (l *Loader) ReadConfigFile() error {
	if l.v.ConfigFileUsed() == "" {
		return nil
	}
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func (l *Loader) Unmarshal(out any) error {
	return l.v.Unmarshal(out)
}
