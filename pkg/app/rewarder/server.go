// Package rewarder wires the rewarder engine and dashboard into a runnable server.
package rewarder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chainsafe/bridge-rewarder/pkg/app/httpserver"
	"github.com/chainsafe/bridge-rewarder/pkg/config"
	"github.com/chainsafe/bridge-rewarder/pkg/dashboard"
	"github.com/chainsafe/bridge-rewarder/pkg/db"
	"github.com/chainsafe/bridge-rewarder/pkg/deposits"
	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
	"github.com/chainsafe/bridge-rewarder/pkg/keys"
	"github.com/chainsafe/bridge-rewarder/pkg/pgutil"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
	"github.com/chainsafe/bridge-rewarder/pkg/rewarder"
	"github.com/chainsafe/bridge-rewarder/pkg/rewards"
)

const (
	shutdownTimeout = 30 * time.Second
	requestTimeout  = 60 * time.Second
	initialBackoff  = time.Second
)

var gwei = big.NewInt(1_000_000_000)

// Options selects which components the server runs
type Options struct {
	Rewarder  bool
	Dashboard bool
}

// Server runs the rewarder loop and the HTTP endpoints
type Server struct {
	cfg  *config.Config
	opts Options
}

// NewServer creates a new rewarder server
func NewServer(cfg *config.Config, opts Options) *Server {
	return &Server{cfg: cfg, opts: opts}
}

// readiness reports whether the rewarder finished startup recovery
type readiness interface {
	IsReady() bool
}

type alwaysReady struct{}

func (alwaysReady) IsReady() bool { return true }

// Run starts the configured components and blocks until shutdown
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := s.cfg
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if !s.opts.Rewarder && !s.opts.Dashboard {
		return errors.New("nothing to run, enable the rewarder or the dashboard")
	}

	logger.Info("Starting bridge rewarder",
		zap.Bool("rewarder", s.opts.Rewarder),
		zap.Bool("dashboard", s.opts.Dashboard))

	bunDB, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := db.NewStore(bunDB)
	defer func() { _ = store.Close() }()
	logger.Info("Database connection established")

	client, err := ethereum.NewClient(cfg.Chain, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize chain client: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	signer, err := keys.NewSigner(cfg.Rewarder.OperatorPrivateKey, chainID)
	if err != nil {
		return fmt.Errorf("failed to load operator key: %w", err)
	}
	logChainInfo(ctx, logger, client, chainID, signer.Address().Hex())

	bridges := configuredBridges(cfg)

	var (
		engine *rewarder.Engine
		ready  readiness = alwaysReady{}
	)
	if s.opts.Rewarder {
		engine = newEngine(cfg, client, store, signer, bridges, logger)
		ready = engine
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", readyHandler(ready, store))

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled")
	}

	if s.opts.Dashboard {
		info := dashboard.Info{
			OperatorAddress: signer.Address(),
			RPCURL:          cfg.Chain.RPCURL,
			ExplorerURL:     cfg.Chain.ExplorerURL,
			Bridges:         bridges,
			Thresholds:      cfg.Rewarder.RewardThresholds,
			RewardRBTC:      cfg.Rewarder.RewardRBTC,
		}
		svc := dashboard.NewLog(dashboard.NewService(store, client, info, logger), logger)
		r.Route("/api/v1", func(r chi.Router) {
			dashboard.RegisterRoutes(r, svc, logger)
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	if engine != nil {
		g.Go(func() error {
			if err := engine.Start(gctx); err != nil {
				return fmt.Errorf("failed to start rewarder engine: %w", err)
			}
			<-gctx.Done()
			engine.Stop()
			return nil
		})
	}
	g.Go(func() error {
		return httpserver.ServeAndWait(gctx, logger, httpserver.New(cfg.Server, r), shutdownTimeout)
	})

	err = g.Wait()
	logger.Info("Bridge rewarder stopped")
	return err
}

func newEngine(
	cfg *config.Config,
	client *ethereum.Client,
	store *db.Store,
	signer *keys.Signer,
	bridges []deposits.Bridge,
	logger *zap.Logger,
) *rewarder.Engine {
	rc := cfg.Rewarder
	policy := retry.Policy{
		MaxRetries:      rc.RetryMaxAttempts,
		InitialInterval: initialBackoff,
		MaxInterval:     rc.RetryMaxBackoff,
	}

	fetcher := deposits.NewFetcher(client, rc.BatchSize, rc.FetchRetries, logger)
	normalizer := deposits.NewNormalizer(client, deposits.NewTokenCache(), rc.DepositFeePercentage, logger)
	queue := rewards.NewQueue(store, client, rewards.QueueConfig{
		Thresholds:             rc.RewardThresholds,
		RewardRBTC:             rc.RewardRBTC,
		SkipContractRecipients: rc.SkipContractRecipients,
		Retry:                  policy,
	}, logger)
	sender := rewards.NewSender(store, client, signer, rewards.SenderConfig{
		MaxGasPrice:         new(big.Int).Mul(big.NewInt(cfg.Chain.MaxGasPriceGwei), gwei),
		GasLimit:            rc.GasLimit,
		MaxPending:          rc.MaxPendingTransactions,
		ReceiptTimeout:      cfg.Chain.ReceiptTimeout,
		ReceiptPollInterval: cfg.Chain.ReceiptPollInterval,
		Retry:               policy,
	}, logger)

	rounds := rewarder.NewRoundDriver(
		client, fetcher, normalizer, queue, store, bridges,
		cfg.Chain.RequiredBlockConfirmations, logger,
	)
	return rewarder.NewEngine(rounds, sender, store, rewarder.EngineConfig{
		DefaultStartBlock: cfg.Chain.DefaultStartBlock,
		PollInterval:      rc.PollInterval,
		ErrorCooldown:     rc.ErrorCooldown,
	}, logger)
}

func configuredBridges(cfg *config.Config) []deposits.Bridge {
	addrs := cfg.BridgeAddresses()
	bridges := make([]deposits.Bridge, len(cfg.Bridges))
	for i, b := range cfg.Bridges {
		bridges[i] = deposits.Bridge{Name: b.Name, Address: addrs[i]}
	}
	return bridges
}

// logChainInfo logs the chain parameters the operator should double check at startup
func logChainInfo(ctx context.Context, logger *zap.Logger, client *ethereum.Client, chainID *big.Int, operator string) {
	fields := []zap.Field{
		zap.String("rpc_url", client.Endpoint()),
		zap.String("chain_id", chainID.String()),
		zap.String("operator", operator),
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		logger.Warn("Failed to read gas price", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("Connected to chain", append(fields,
		zap.String("gas_price_wei", gasPrice.String()),
		zap.String("gas_price_gwei", decimal.NewFromBigInt(gasPrice, -9).String()))...)
}

func readyHandler(ready readiness, store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready.IsReady() || store.Ping(r.Context()) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
