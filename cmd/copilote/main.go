package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"copilote/internal/auth"
	"copilote/internal/backend"
	"copilote/internal/budget"
	"copilote/internal/cache"
	"copilote/internal/categorize"
	"copilote/internal/config"
	apphttp "copilote/internal/http"
	"copilote/internal/ledger"
	"copilote/internal/log"
	"copilote/internal/oracle/gemini"
	"copilote/internal/rules"
	"copilote/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	var verifier auth.Verifier
	if cfg.AuthVerifyURL != "" {
		verifier = auth.NewHTTPVerifier(cfg.AuthVerifyURL)
		logger.Info("Using external token verification", "url", cfg.AuthVerifyURL)
	} else {
		tokens, err := auth.ParseTokenList(cfg.APITokens)
		if err != nil {
			logger.Error("Invalid API_TOKENS", log.FieldError, err)
			os.Exit(1)
		}
		if len(tokens) == 0 {
			logger.Error("No auth configured, set API_TOKENS or AUTH_VERIFY_URL")
			os.Exit(1)
		}
		verifier = auth.NewStaticVerifier(tokens)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}
	}()

	// The oracle is optional: without an API key unknown labels go straight
	// to review.
	var oracle categorize.Oracle
	cacheManager := cache.NewManager()
	if cfg.GeminiAPIKey != "" {
		gem, err := gemini.New(ctx, gemini.Config{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Cooldown: cfg.OracleCooldown,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Gemini oracle", log.FieldError, err)
			os.Exit(1)
		}
		cached := categorize.NewCachedOracle(gem, 512, 24*time.Hour)
		cacheManager.Register(cached)
		oracle = cached
		logger.Info("Gemini oracle enabled", log.FieldModel, gem.Model())
	} else {
		logger.Info("Gemini oracle disabled - no GEMINI_API_KEY provided")
	}
	cacheManager.StartCleanup(time.Hour)
	defer cacheManager.Stop()

	ruleStore := rules.NewStore(result.Store)
	coach := services.NewCoach(
		ledger.New(result.Store),
		ruleStore,
		categorize.New(ruleStore, oracle, cfg.OracleTimeout),
		budget.NewProposer(cfg.BudgetBuffer, cfg.BudgetPeriodDays),
		result.Publisher,
		logger,
	)

	srv := apphttp.NewServer(":"+cfg.Port, coach, verifier, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting copilote server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
