package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magicblock-labs/conjunto-director/config"
	"github.com/magicblock-labs/conjunto-director/internal/director/chainclient"
	"github.com/magicblock-labs/conjunto-director/internal/director/pubsub"
	"github.com/magicblock-labs/conjunto-director/internal/director/snapshot"
	"github.com/magicblock-labs/conjunto-director/internal/pubsubserver"
	"github.com/magicblock-labs/conjunto-director/internal/rpcserver"
	"github.com/magicblock-labs/conjunto-director/observability/logging"
)

const directorEnvVar = "DIRECTOR_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(directorEnvVar))
	logger := logging.Setup("director", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env == "" && strings.TrimSpace(cfg.Environment) != "" {
		logger = logging.Setup("director", cfg.Environment)
	}

	chainCluster, err := cfg.ResolveChainCluster()
	if err != nil {
		logger.Error("failed to resolve chain cluster", slog.Any("error", err))
		os.Exit(1)
	}

	chainHTTPURL, chainWSURL := chainCluster.URLs()
	chainHTTP := chainclient.NewJSONRPCClient(chainHTTPURL)
	ephemeralHTTPURL := cfg.EphemeralHTTPURL
	if ephemeralHTTPURL == "" {
		logger.Error("EphemeralHTTPURL must be configured")
		os.Exit(1)
	}
	ephemeralHTTP := chainclient.NewJSONRPCClient(ephemeralHTTPURL)

	snapshotProvider := &snapshot.ChainSnapshotProvider{Accounts: chainHTTP}
	snapshotter := &snapshot.TransactionAccountsSnapshotter{Provider: snapshotProvider}

	arbiter := &pubsub.Arbiter{
		Ephemeral:     ephemeralHTTP,
		EphemeralSigs: ephemeralHTTP,
		Logger:        logger,
	}

	rpc := &rpcserver.Server{
		Chain:     chainHTTP,
		Ephemeral: ephemeralHTTP,
		Snapshots: snapshotter,
		Logger:    logger,
		JWT:       &cfg.JWT,
	}

	pubsubSrv := &pubsubserver.Server{
		Arbiter:  arbiter,
		ChainURL: chainWSURL,
		EphemURL: cfg.EphemeralWSURL,
		Logger:   logger,
	}

	errCh := make(chan error, 3)
	go func() {
		errCh <- fmt.Errorf("rpc listener: %w", http.ListenAndServe(cfg.RPCListenAddress, rpcserver.NewRouter(rpc)))
	}()
	go func() {
		errCh <- fmt.Errorf("pubsub listener: %w", http.ListenAndServe(cfg.PubsubListenAddress, http.HandlerFunc(pubsubSrv.ServeHTTP)))
	}()
	if cfg.MetricsListenAddress != "" {
		go func() {
			errCh <- fmt.Errorf("metrics listener: %w", http.ListenAndServe(cfg.MetricsListenAddress, promhttp.Handler()))
		}()
	}

	logger.Info("director running",
		"rpc_addr", cfg.RPCListenAddress,
		"pubsub_addr", cfg.PubsubListenAddress,
		"chain_cluster", cfg.Cluster,
		"ephemeral_http", ephemeralHTTPURL,
	)

	err = <-errCh
	logger.Error("listener terminated", slog.Any("error", err))
	os.Exit(1)
}
