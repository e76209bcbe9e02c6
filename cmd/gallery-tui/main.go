// Command gallery-tui browses the gallery feed in the terminal and uploads
// new images through a validated form.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/gallery-feed/internal/app"
	"github.com/Sternrassler/gallery-feed/internal/config"
	"github.com/Sternrassler/gallery-feed/internal/ui"
	"github.com/Sternrassler/gallery-feed/pkg/logging"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML config file (optional)")
	envFile := flag.String("env-file", "", "dotenv file (optional, defaults to .env when present)")
	logFile := flag.String("log-file", "", "write logs to this file; logs are dropped when empty")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigPath: *configPath, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gallery-tui: %v\n", err)
		return 1
	}

	// The UI owns the terminal, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gallery-tui: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Service = "gallery-tui"
	logCfg.Pretty = false
	logCfg.Output = out
	logging.Setup(logCfg)
	logger := logging.NewLogger("gallery-tui")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gallery-tui: %v\n", err)
		return 1
	}
	defer a.Close()
	a.Start(ctx)

	logger.Info().Str("version", version).Str("api", cfg.API.BaseURL).Msg("Starting gallery TUI")

	if err := ui.Run(ctx, ui.Options{Feed: a.Feed}); err != nil {
		logger.Error().Err(err).Msg("UI exited with error")
		fmt.Fprintf(os.Stderr, "gallery-tui: %v\n", err)
		return 1
	}
	return 0
}
