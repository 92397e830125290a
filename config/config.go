package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/magicblock-labs/conjunto-director/internal/director/cluster"
	"github.com/magicblock-labs/conjunto-director/internal/rpcserver"
)

// Config is the director's startup configuration: which cluster to
// route the "chain" side against, where the ephemeral validator lives,
// and which addresses to listen on (spec.md §6).
type Config struct {
	// Cluster selects the fixed chain endpoint pair: mainnet, testnet,
	// devnet, or development. Ignored when ChainHTTPURL is set.
	Cluster string `toml:"Cluster"`
	// ChainHTTPURL/ChainWSURL override Cluster with explicit URLs,
	// equivalent to cluster.Custom.
	ChainHTTPURL string `toml:"ChainHTTPURL"`
	ChainWSURL   string `toml:"ChainWSURL"`

	// EphemeralHTTPURL/EphemeralWSURL address the ephemeral validator.
	EphemeralHTTPURL string `toml:"EphemeralHTTPURL"`
	EphemeralWSURL   string `toml:"EphemeralWSURL"`

	// RPCListenAddress is where the JSON-RPC HTTP listener binds.
	RPCListenAddress string `toml:"RPCListenAddress"`
	// PubsubListenAddress is where the WebSocket pub/sub listener binds.
	PubsubListenAddress string `toml:"PubsubListenAddress"`

	// Environment is a free-form deployment label included on every
	// structured log line emitted after the config is loaded
	// (observability/logging.Setup). A non-empty DIRECTOR_ENV
	// environment variable takes precedence over it.
	Environment string `toml:"Environment"`

	// MetricsListenAddress serves /metrics when non-empty.
	MetricsListenAddress string `toml:"MetricsListenAddress"`

	// JWT configures optional bearer-token authentication on the RPC
	// listener, disabled by default (spec.md §6 names no auth scheme;
	// this is an ambient concern carried from the teacher's rpc/http.go).
	JWT rpcserver.JWTConfig `toml:"JWT"`
}

const (
	defaultRPCListenAddress     = "127.0.0.1:9899"
	defaultPubsubListenAddress  = "127.0.0.1:9900"
	defaultMetricsListenAddress = "127.0.0.1:9901"
)

// Load reads the configuration at path, writing a default file in its
// place when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RPCListenAddress == "" {
		cfg.RPCListenAddress = defaultRPCListenAddress
	}
	if cfg.PubsubListenAddress == "" {
		cfg.PubsubListenAddress = defaultPubsubListenAddress
	}
	if cfg.Cluster == "" && cfg.ChainHTTPURL == "" {
		cfg.Cluster = "development"
	}
}

// createDefault writes and returns a development-cluster default
// configuration at path.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Cluster:              "development",
		EphemeralHTTPURL:     "http://localhost:8899",
		EphemeralWSURL:       "ws://localhost:8900",
		RPCListenAddress:     defaultRPCListenAddress,
		PubsubListenAddress:  defaultPubsubListenAddress,
		MetricsListenAddress: defaultMetricsListenAddress,
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveChainCluster builds the cluster.Cluster the chain side
// connects to, honouring an explicit URL override before falling back
// to the named fixed cluster.
func (c *Config) ResolveChainCluster() (cluster.Cluster, error) {
	if c.ChainHTTPURL != "" {
		return cluster.NewCustom(c.ChainHTTPURL, c.ChainWSURL), nil
	}
	parsed, ok := cluster.Parse(c.Cluster)
	if !ok {
		return cluster.Cluster{}, fmt.Errorf("unrecognised cluster %q", c.Cluster)
	}
	return parsed, nil
}
