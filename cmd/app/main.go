// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-image-studio/internal/config"
	"ai-image-studio/internal/domain/ports/adapter"
	aiAdapters "ai-image-studio/internal/infra/adapters/ai"
	payAdapters "ai-image-studio/internal/infra/adapters/payment"
	storeAdapters "ai-image-studio/internal/infra/adapters/storage"
	"ai-image-studio/internal/infra/api"
	pg "ai-image-studio/internal/infra/db/postgres"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/infra/metrics"
	red "ai-image-studio/internal/infra/redis"
	"ai-image-studio/internal/infra/sched"
	"ai-image-studio/internal/infra/web"
	"ai-image-studio/internal/infra/worker"
	"ai-image-studio/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	creditRepo := pg.NewCreditRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	assetRepo := pg.NewAssetRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Object storage ----
	store, err := storeAdapters.NewR2Store(&cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("object store")
	}
	fetcher := storeAdapters.NewHTTPFetcher()

	// ---- Image providers (flux and/or gemini behind one router) ----
	byProvider := map[string]adapter.ImageGenerator{}
	if cfg.AI.FluxKey != "" {
		flux, err := aiAdapters.NewFluxAdapter(cfg.AI.FluxKey, cfg.AI.FluxModel, cfg.AI.FluxBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("flux adapter")
		}
		byProvider["flux"] = flux
		logger.Info().Str("base", cfg.AI.FluxBaseURL).Str("model", cfg.AI.FluxModel).Msg("image provider: flux")
	}
	if cfg.AI.GeminiKey != "" {
		gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = gem
		logger.Info().Str("model", cfg.AI.GeminiModel).Msg("image provider: gemini")
	}
	if len(byProvider) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no image provider configured: set ai.flux_key or ai.gemini_key")
		}
		byProvider["noop"] = aiAdapters.NewNoopImageAdapter()
		logger.Warn().Msg("image provider: noop (dev mode)")
	}
	var generator adapter.ImageGenerator = aiAdapters.NewMultiImageAdapter(cfg.AI.DefaultProvider, byProvider, map[string]string{
		cfg.AI.FluxModel:   "flux",
		cfg.AI.GeminiModel: "gemini",
	})
	generator = aiAdapters.NewLimitedGenerator(generator, cfg.AI.ConcurrentLimit)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		gateway, err = payAdapters.NewStripeGateway(
			cfg.Stripe.SecretKey,
			cfg.Stripe.WebhookSecret,
			cfg.Server.BaseURL+"/checkout/success?session_id={CHECKOUT_SESSION_ID}",
			cfg.Server.BaseURL+"/checkout/cancel",
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("stripe.secret_key is required")
		}
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Warn().Msg("payment gateway: noop (dev mode)")
	}

	// ---- Background mirroring pool ----
	mirrorPool := worker.NewPool(4)
	mirrorPool.Start(ctx)
	defer mirrorPool.Stop()

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, creditRepo, txm, cfg.Credits.SignupGrant, logger)
	credUC := usecase.NewCreditUseCase(creditRepo, logger)
	payUC := usecase.NewPaymentUseCase(payRepo, gateway, locker, usecase.CheckoutOffer{
		Credits:     cfg.Stripe.CreditsPerPack,
		AmountCents: cfg.Stripe.PricePerPack,
		Currency:    cfg.Stripe.Currency,
	}, logger)
	whUC := usecase.NewWebhookUseCase(payRepo, creditRepo, txm, gateway, logger)
	genUC := usecase.NewGenerationUseCase(
		creditRepo, assetRepo, generator, store, fetcher, rateLimiter, mirrorPool,
		cfg.Credits.CostPerImage, cfg.Credits.GenerateLimit, cfg.Credits.GenerateWindow, logger,
	)
	assetUC := usecase.NewAssetUseCase(assetRepo, store, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, creditRepo, payRepo, logger)

	// ---- Public API server ----
	auth := api.NewAuthManager(cfg.Security.JWTSecret, !cfg.Runtime.Dev, cfg.Security.TokenTTL)
	apiSrv := api.NewServer(auth, userUC, credUC, payUC, whUC, genUC, assetUC, logger)
	pubServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiSrv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", pubServer.Addr).Msg("public api listening")
		if err := pubServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("public api server")
		}
	}()

	// ---- Admin server (stats + metrics) ----
	adminMux := http.NewServeMux()
	web.NewServer(statsUC, whUC, cfg.Admin.APIKey, logger).RegisterRoutes(adminMux)
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin api listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server")
		}
	}()

	// ---- Payment reconciler ----
	reconciler := sched.NewPaymentReconciler(whUC, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.PendingMaxAge)
	go reconciler.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = pubServer.Shutdown(context.Background())
	_ = adminServer.Shutdown(context.Background())
	_ = redisClient.Close()
}
