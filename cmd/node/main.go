package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akegaviar/graph-node/internal/ethereum"
	"github.com/akegaviar/graph-node/internal/metrics"
	"github.com/akegaviar/graph-node/internal/rpc"
	"github.com/akegaviar/graph-node/internal/store"
	"github.com/akegaviar/graph-node/pkg/common/config"
	"github.com/akegaviar/graph-node/pkg/common/logger"
	"github.com/akegaviar/graph-node/pkg/events"
	"github.com/akegaviar/graph-node/pkg/ratelimiter"
	"github.com/akegaviar/graph-node/pkg/retry"
)

// --- CLI definitions --- //

type CLI struct {
	Run   RunCmd   `cmd:"" help:"Run the node: verify endpoints, watch chain heads, serve metrics."`
	Check CheckCmd `cmd:"" help:"Verify every configured endpoint and print its identity."`
}

type RunCmd struct {
	ConfigPath string `help:"Path to config file." default:"configs/config.yaml" name:"config"`
	Debug      bool   `help:"Enable debug logs." name:"debug"`
	NoNATS     bool   `help:"Do not publish events to NATS." name:"no-nats"`
}

type CheckCmd struct {
	ConfigPath string `help:"Path to config file." default:"configs/config.yaml" name:"config"`
	Debug      bool   `help:"Enable debug logs." name:"debug"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("node"),
		kong.Description("Multi-endpoint chain node with capability-aware failover."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (c *RunCmd) Run() error {
	cfg, err := setup(c.ConfigPath, c.Debug)
	if err != nil {
		return err
	}
	return runNode(cfg, c.NoNATS)
}

func (c *CheckCmd) Run() error {
	cfg, err := setup(c.ConfigPath, c.Debug)
	if err != nil {
		return err
	}
	return runCheck(cfg)
}

func setup(path string, debug bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
	logger.Info("Config loaded", "networks", len(cfg.Networks))
	return cfg, nil
}

// buildNetworks turns the configured providers into a frozen registry.
func buildNetworks(cfg config.Config) (*ethereum.Networks, error) {
	builder := ethereum.NewNetworksBuilder()

	for name, network := range cfg.Networks {
		if network.Client.AttemptTimeout > 0 {
			builder.SetAttemptTimeout(name, network.Client.AttemptTimeout)
		}
		for _, provider := range network.Providers {
			var limiter *ratelimiter.RateLimiter
			if network.Client.RPS > 0 {
				limiter = ratelimiter.NewFromRPS(network.Client.RPS, network.Client.Burst)
			}

			var auth *rpc.AuthConfig
			if len(provider.Headers) > 0 {
				auth = &rpc.AuthConfig{Type: "custom", Headers: provider.Headers}
			}

			client, err := rpc.NewClient(provider.URL, auth, network.Client.Timeout, limiter)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", name, provider.Label, err)
			}

			caps := ethereum.ParseCapabilities(provider.Capabilities)
			builder.Insert(name, caps, rpc.NewAdapter(client))
			logger.Info("Registered endpoint",
				"network", name,
				"provider", provider.Label,
				"capabilities", caps.String(),
			)
		}
	}

	return builder.Build(), nil
}

// verifyEndpoints asks every registered endpoint for its network identity,
// retrying with backoff while an endpoint is still coming up.
func verifyEndpoints(ctx context.Context, networks *ethereum.Networks) error {
	for _, entry := range networks.Flatten() {
		entry := entry
		err := retry.Exponential(func() error {
			ident, err := entry.Adapter.NetIdentifiers(ctx)
			if err != nil {
				return err
			}
			logger.Info("Endpoint verified",
				"network", entry.Network,
				"endpoint", entry.Adapter.URLHostname(),
				"net_version", ident.NetVersion,
				"genesis", ident.GenesisBlockHash,
			)
			return nil
		}, retry.ExponentialConfig{
			InitialInterval: time.Second,
			MaxElapsedTime:  30 * time.Second,
			OnRetry: func(err error, next time.Duration) {
				logger.Warn("Endpoint not ready, retrying",
					"network", entry.Network,
					"endpoint", entry.Adapter.URLHostname(),
					"err", err,
					"next", next,
				)
			},
		})
		if err != nil {
			return fmt.Errorf("verify %s endpoint %s: %w",
				entry.Network, entry.Adapter.URLHostname(), err)
		}
	}
	return nil
}

func runCheck(cfg config.Config) error {
	networks, err := buildNetworks(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return verifyEndpoints(ctx, networks)
}

func runNode(cfg config.Config, noNATS bool) error {
	networks, err := buildNetworks(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := verifyEndpoints(ctx, networks); err != nil {
		return err
	}

	dir := cfg.Store.Directory
	if dir == "" {
		dir = "data"
	}
	chainStore, err := store.OpenChainStore(filepath.Join(dir, "chain"))
	if err != nil {
		return fmt.Errorf("open chain store: %w", err)
	}
	defer chainStore.Close()

	callCache, err := store.OpenCallCache(filepath.Join(dir, "calls"))
	if err != nil {
		return fmt.Errorf("open call cache: %w", err)
	}
	defer callCache.Close()

	emitter := events.Noop()
	if !noNATS {
		emitter, err = events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
	}
	defer emitter.Close()

	rpcMetrics := metrics.NewRPC()
	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen, rpcMetrics)
	}

	for name, networkCfg := range cfg.Networks {
		pool, err := networks.Network(name)
		if err != nil {
			return err
		}
		go watchHead(ctx, name, networkCfg.PollInterval, pool, chainStore, rpcMetrics, emitter)
	}

	logger.Info("Node is running... Press Ctrl+C to stop")
	waitForShutdown()
	cancel()
	logger.Info("Node stopped")
	return nil
}

// watchHead polls the network for its latest header, records it as the chain
// head, and publishes it on the event bus.
func watchHead(
	ctx context.Context,
	network string,
	interval time.Duration,
	pool *ethereum.NetworkAdapters,
	chainStore ethereum.ChainStore,
	callMetrics ethereum.CallMetrics,
	emitter events.Emitter,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastPtr ethereum.BlockPtr
	var haveLast bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		header, err := pool.LatestBlockHeader(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Fetch chain head failed", "network", network, "err", err)
			if emitErr := emitter.EmitError(network, err); emitErr != nil {
				logger.Warn("Emit error event failed", "network", network, "err", emitErr)
			}
			continue
		}
		ptr := header.Ptr()
		if haveLast && ptr.Hash == lastPtr.Hash {
			continue
		}

		// At the same or a lower height the previous head has been replaced.
		if haveLast && ptr.Number <= lastPtr.Number {
			onMain, err := pool.IsOnMainChain(ctx, callMetrics, chainStore, lastPtr)
			if err != nil {
				logger.Warn("Reorg check failed", "network", network, "err", err)
			} else if !onMain {
				logger.Warn("Chain reorg detected",
					"network", network,
					"old_number", lastPtr.Number,
					"old_hash", lastPtr.Hash,
				)
			}
		}
		lastPtr, haveLast = ptr, true

		if err := chainStore.SetChainHead(ctx, ptr); err != nil {
			logger.Error("Persist chain head failed", "network", network, "err", err)
		}
		if err := emitter.EmitHead(network, ptr); err != nil {
			logger.Warn("Emit head event failed", "network", network, "err", err)
		}
		logger.Info("New chain head", "network", network, "number", ptr.Number, "hash", ptr.Hash)
	}
}

func serveMetrics(listen string, rpcMetrics *metrics.RPC) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rpcMetrics.Registry, promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", "listen", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Error("Metrics server failed", "err", err)
	}
}

func waitForShutdown() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}
