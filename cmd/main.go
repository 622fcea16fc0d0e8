package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"toronet-wallet/internal/api"
	"toronet-wallet/internal/auth"
	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/config"
	"toronet-wallet/internal/health"
	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/logger"
	"toronet-wallet/internal/metrics"
	"toronet-wallet/internal/orchestrator"
	"toronet-wallet/internal/query"
	"toronet-wallet/internal/session"
	"toronet-wallet/internal/state"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.GetLogger()

	if err := catalog.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Asset catalog is inconsistent")
	}

	secretPolicy, err := orchestrator.ParseSecretPolicy(cfg.Wallet.SecretPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SECRET_POLICY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	client := ledger.NewClient(
		cfg.Ledger.BaseURL(),
		cfg.Ledger.ApiKey,
		cfg.Ledger.RateLimit,
		cfg.MaxRetries,
		cfg.RetryDelay,
		cfg.Ledger.HTTPTimeout,
		logger.Component("ledger"),
	)
	client.Observer = recorder
	defer client.Close()

	log.Info().
		Str("environment", cfg.Ledger.Environment).
		Str("url", client.BaseURL).
		Msg("Using Toronet ledger")

	emitter, journal, closeEmitters := buildEmitter(ctx, cfg)
	defer closeEmitters()

	store := state.NewStore()
	sessions, err := session.NewStore(cfg.Session.File, cfg.Session.Secret, logger.Component("session"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session store")
	}

	queries := query.NewModule(client, store, cfg.Ledger.TransactionHistory, logger.Component("query"), recorder)

	opts := orchestrator.Options{
		RequestTimeout: cfg.Wallet.RequestTimeout,
		SecretPolicy:   secretPolicy,
		Emitter:        emitter,
		Metrics:        recorder,
	}
	if cfg.Mint.AdminAddress != "" && cfg.Mint.AdminPassword != "" {
		opts.Authority = orchestrator.StaticAuthority{Admin: cfg.Mint.AdminAddress, Password: cfg.Mint.AdminPassword}
	} else {
		log.Info().Msg("Mint credentials not configured, minting disabled")
	}
	flows := orchestrator.New(client, store, queries, logger.Component("orchestrator"), opts)

	authService := auth.NewService(client, sessions, store, flows, logger.Component("auth"))

	monitor := health.NewMonitor(client, cfg.Ledger.ConnectivityInterval, recorder, logger.Component("health"))
	go monitor.Run(ctx)

	resumeSession(ctx, sessions, queries)

	server := &api.Server{
		Auth:         authService,
		Query:        queries,
		Orchestrator: flows,
		Store:        store,
		Health:       monitor,
		Gatherer:     reg,
		Logger:       logger.Component("api"),
	}
	if journal != nil {
		server.Journal = journal
		monitor.AddDependency("journal", journal)
	}
	router := api.NewRouter(server)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()
	monitor.SetReady(true)

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	monitor.SetReady(false)
	flows.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
