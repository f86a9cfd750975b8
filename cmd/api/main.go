package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/credit"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/payments"
	"server/internal/providers/inference"
	"server/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	// Env keys win; the credential store is the fallback so keys can rotate
	// without a redeploy.
	credStore := credentials.NewStore(runner)
	inferenceKey := strings.TrimSpace(cfg.InferenceAPIKey)
	if inferenceKey == "" {
		if key, err := credStore.InferenceAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to load inference api key from store")
		} else {
			inferenceKey = key
		}
	}
	paymentKey := strings.TrimSpace(cfg.PaymentAPIKey)
	if paymentKey == "" {
		if key, err := credStore.PaymentAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to load payment api key from store")
		} else {
			paymentKey = key
		}
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	ledger := credit.NewLedger(runner)

	app := &handlers.App{
		Config: cfg,
		Logger: logger,
		SQL:    runner,
		Ledger: ledger,
		Inference: inference.NewClient(inference.Options{
			BaseURL: cfg.InferenceBaseURL,
			APIKey:  inferenceKey,
		}),
		Payments: payments.NewClient(payments.Options{
			BaseURL: cfg.PaymentBaseURL,
			APIKey:  paymentKey,
		}),
		Models:   domain.DefaultModels(),
		Products: payments.DefaultCatalog(),
		Country:  countryLookup,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	// In-process sweep keeps single-instance deployments self-contained; the
	// cmd/sweeper binary covers running it separately.
	go (&sweeper.Sweeper{
		SQL:       runner,
		Ledger:    ledger,
		Logger:    logger,
		Interval:  cfg.SweepInterval,
		After:     cfg.SweepAfter,
		BatchSize: cfg.SweepBatchSize,
	}).Run(ctx)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
