// Command gallery-proxy serves the gallery feed over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/gallery-feed/internal/app"
	"github.com/Sternrassler/gallery-feed/internal/config"
	"github.com/Sternrassler/gallery-feed/pkg/logging"
	"github.com/Sternrassler/gallery-feed/pkg/metrics"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML config file (optional)")
	envFile := flag.String("env-file", "", "dotenv file (optional, defaults to .env when present)")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigPath: *configPath, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gallery-proxy: %v\n", err)
		return 1
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Service = "gallery-proxy"
	logging.Setup(logCfg)
	logger := logging.NewLogger("gallery-proxy")
	metrics.SetBuildInfo("gallery-proxy", version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start feed")
		return 1
	}
	defer a.Close()
	a.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(a.Feed, a.Ready, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("version", version).Msg("Starting gallery proxy")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server failed")
			return 1
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
		return 1
	}
	logger.Info().Msg("Gallery proxy stopped")
	return 0
}
