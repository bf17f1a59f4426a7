package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainbooks/chainbooks/internal/analyzer"
	"github.com/chainbooks/chainbooks/internal/classify"
	"github.com/chainbooks/chainbooks/internal/enrich"
	"github.com/chainbooks/chainbooks/internal/infra/gateway/etherscan"
	"github.com/chainbooks/chainbooks/internal/infra/gateway/moralis"
	"github.com/chainbooks/chainbooks/internal/infra/postgres"
	infraredis "github.com/chainbooks/chainbooks/internal/infra/redis"
	"github.com/chainbooks/chainbooks/internal/transport/httpapi"
	"github.com/chainbooks/chainbooks/internal/transport/httpapi/handler"
	"github.com/chainbooks/chainbooks/pkg/config"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting chainbooks API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Analysis storage: Postgres when configured, Redis otherwise.
	var (
		store        analyzer.AnalysisStore
		healthPinger handler.Pinger
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("Database connection established")

		store = postgres.NewAnalysisRepo(db, log)
		healthPinger = db
	} else {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Redis connection established")

		store = infraredis.NewStore(redisClient, log)
		healthPinger = redisPinger{client: redisClient}
	}

	// Transaction sources, queried in order; Etherscan is primary.
	sources := []analyzer.TransactionSource{
		etherscan.NewSource(etherscan.NewClient(cfg.EtherscanAPIKey, log)),
	}
	if cfg.MoralisAPIKey != "" {
		sources = append(sources, moralis.NewSource(moralis.NewClient(cfg.MoralisAPIKey, log)))
	} else {
		log.Warn("MORALIS_API_KEY not configured, running with Etherscan only")
	}

	// Enrichment runs on the built-in token table and observed prices; no
	// external metadata or pricing providers are wired yet.
	enricher := enrich.NewProcessor(nil, nil, log)
	classifier := classify.NewClassifier()

	analyzerSvc := analyzer.NewService(sources, enricher, classifier, store, log)
	log.Info("Analyzer service initialized", "sources", len(sources), "default_method", cfg.CostBasisMethod)

	walletHandler := handler.NewWalletHandler(analyzerSvc, log)
	healthHandler := handler.NewHealthHandler(healthPinger)

	r := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		WalletHandler:  walletHandler,
		HealthHandler:  healthHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis runs fetch full wallet histories
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}

// redisPinger adapts the redis client to the health handler's Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
