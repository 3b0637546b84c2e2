package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/lifeos/internal/config"
	"github.com/p-blackswan/lifeos/internal/health"
	"github.com/p-blackswan/lifeos/internal/metrics"
	"github.com/p-blackswan/lifeos/internal/server"
	"github.com/p-blackswan/lifeos/internal/store"
	"github.com/p-blackswan/lifeos/internal/templates"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid default timezone")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.ListenAddr).
		Str("db", cfg.DBPath).
		Str("auth_mode", cfg.AuthMode).
		Bool("tls", cfg.TLSEnabled()).
		Msg("starting lifeos")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	catalogue, err := templates.Load(cfg.TemplatesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load structure templates")
	}

	checker := health.NewChecker(logger)
	checker.Register("sqlite", health.PingCheck("sqlite", st, logger))

	srv := server.NewServer(server.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: server.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
			JWTIssuer: cfg.JWTIssuer,
			CacheSize: cfg.TokenCacheSize,
		},
		RateLimit: server.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOriginList(),
		TLSCert:     cfg.TLSCert,
		TLSKey:      cfg.TLSKey,
		Location:    loc,
	}, server.Deps{
		Store:     st,
		Checker:   checker,
		Metrics:   metrics.New(),
		Templates: catalogue,
	}, logger)

	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	exitCode := waitForStop(sigCh, errCh, logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("lifeos stopped")
	if exitCode != 0 {
		st.Close()
		os.Exit(exitCode)
	}
}

// waitForStop blocks until a signal arrives or the server fails to serve,
// returning the process exit code.
func waitForStop(sigCh <-chan os.Signal, errCh <-chan error, logger zerolog.Logger) int {
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		return 0
	case err := <-errCh:
		logger.Error().Err(err).Msg("API server error")
		return 1
	}
}
