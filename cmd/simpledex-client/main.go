package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantumauth-io/quantum-go-utils/log"

	clientconfig "github.com/quantumauth-io/simpledex-client/cmd/simpledex-client/config"
	"github.com/quantumauth-io/simpledex-client/internal/assets"
	"github.com/quantumauth-io/simpledex-client/internal/constants"
	"github.com/quantumauth-io/simpledex-client/internal/dex"
	"github.com/quantumauth-io/simpledex-client/internal/eth"
	"github.com/quantumauth-io/simpledex-client/internal/helpers"
	clienthttp "github.com/quantumauth-io/simpledex-client/internal/http"
	"github.com/quantumauth-io/simpledex-client/internal/wallet"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const providerProbeTimeout = 5 * time.Second

func main() {
	log.Info(constants.AppName,
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := clientconfig.Load()
	if err != nil {
		log.Fatal("failed to parse config", "error", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		log.Fatal("invalid network configuration", "error", err)
	}
	dexAddress, err := cfg.DEXAddress()
	if err != nil {
		log.Fatal("invalid dex configuration", "error", err)
	}

	rpcProvider := dialProvider(ctx, cfg)
	var provider wallet.Provider
	if rpcProvider != nil {
		provider = rpcProvider
		defer rpcProvider.Close()
	}

	manager := wallet.NewManager(provider, registry)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Error("wallet session close failed", "error", err)
		}
	}()
	if err := manager.Start(ctx); err != nil {
		log.Error("wallet session start failed", "error", err)
		return
	}
	go logSessionChanges(ctx, manager)

	orchestrator, err := dex.New(dex.HandleSource(manager), dexAddress,
		dex.WithPollInterval(cfg.DEX.PollInterval, cfg.DEX.MaxPollInterval),
		dex.WithConfirmTimeout(cfg.DEX.ConfirmTimeout),
		dex.WithStepObserver(func(op dex.Operation, step dex.Step) {
			log.Info("dex step", "op", op.ID.String(), "kind", string(op.Kind), "step", step.Name, "status", string(step.Status))
		}),
	)
	if err != nil {
		log.Error("failed to init dex orchestrator", "error", err)
		return
	}

	assetsPath, err := assets.DefaultPath()
	if err != nil {
		log.Warn("token catalog will not be persisted", "error", err)
	}
	catalog := assets.NewManager(orchestrator, assets.WithPath(assetsPath))
	if err := catalog.Load(); err != nil {
		log.Warn("failed to load token catalog", "path", assetsPath, "error", err)
	}

	handler := clienthttp.NewHandler(manager, orchestrator, registry, catalog, clienthttp.Options{
		QueryDecimals:   cfg.DEX.QueryDecimals,
		DefaultDecimals: cfg.DEX.DefaultDecimals,
		DefaultTokens:   cfg.Tokens,
	})
	router := clienthttp.NewRouter(handler, cfg.Client.AllowedOrigins)

	server := clienthttp.NewServer(cfg.Client.Host, cfg.Client.Port, router)
	if err := server.Run(ctx); err != nil {
		log.Error("HTTP server stopped", "error", err)
	}
	log.Info("shutdown complete")
}

// dialProvider connects to the configured wallet endpoint. It returns nil when the endpoint
// cannot be reached; the session then reports that no wallet is available.
func dialProvider(ctx context.Context, cfg *clientconfig.Config) *eth.RPCProvider {
	opts := []eth.Option{eth.WithWatchInterval(cfg.Wallet.PollInterval)}
	switch {
	case !cfg.Wallet.PromptOnConnect:
	case helpers.StdinIsTerminal():
		opts = append(opts, eth.WithConsent(helpers.AccountAccessPrompt(constants.AppName, helpers.StdinPrompter())))
	default:
		log.Warn("stdin is not a terminal, connecting without the consent prompt")
	}

	p, err := eth.Dial(ctx, cfg.Wallet.RPCURL, opts...)
	if err != nil {
		log.Warn("wallet provider unavailable", "rpc_url", cfg.Wallet.RPCURL, "error", err)
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, providerProbeTimeout)
	defer cancel()
	chainID, err := p.ChainID(probeCtx)
	if err != nil {
		log.Warn("wallet provider unavailable", "rpc_url", cfg.Wallet.RPCURL, "error", err)
		p.Close()
		return nil
	}
	log.Info("wallet provider ready", "rpc_url", cfg.Wallet.RPCURL, "chain_id", chainID)
	return p
}

func logSessionChanges(ctx context.Context, m *wallet.Manager) {
	updates, cancel := m.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			account := ""
			if st.Address != nil {
				account = st.Address.Hex()
			}
			network := ""
			if st.Network != nil {
				network = st.Network.Name
			}
			log.Info("wallet session", "status", string(st.Status), "account", account, "network", network, "error", st.Error)
		}
	}
}
