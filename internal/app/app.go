// Package app wires configuration, the gallery API client, the optional
// Redis response cache and the feed into one runnable unit shared by the
// binaries.
package app

import (
	"context"
	"fmt"

	"github.com/Sternrassler/gallery-feed/internal/config"
	"github.com/Sternrassler/gallery-feed/pkg/client"
	"github.com/Sternrassler/gallery-feed/pkg/gallery"
	"github.com/Sternrassler/gallery-feed/pkg/httpcache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the wired feed and its collaborators.
type App struct {
	Config      *config.Config
	Client      *client.Client
	Feed        *gallery.Feed
	Revalidator *gallery.Revalidator

	// Redis is nil when the response cache is disabled
	Redis *redis.Client

	logger zerolog.Logger
}

// New connects to Redis (when enabled) and builds the feed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	clientCfg := client.DefaultConfig(cfg.API.BaseURL, cfg.API.UserAgent)
	clientCfg.Timeout = cfg.API.Timeout

	if cfg.Redis.Enabled {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		clientCfg.ResponseCache = httpcache.NewStore(a.Redis)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis response cache")
	}

	c, err := client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gallery client: %w", err)
	}
	a.Client = c

	feedLogger := logger.With().Str("component", "feed").Logger()
	feed, err := gallery.NewFeed(gallery.NewAPI(c), gallery.FeedOptions{Logger: &feedLogger})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Feed = feed
	a.Revalidator = gallery.NewRevalidator(feed, cfg.Feed.RevalidateInterval)

	return a, nil
}

// Start launches background revalidation until ctx ends.
func (a *App) Start(ctx context.Context) {
	a.Revalidator.Start(ctx)
	a.logger.Info().
		Str("api", a.Client.BaseURL()).
		Dur("revalidate_interval", a.Config.Feed.RevalidateInterval).
		Bool("response_cache", a.Redis != nil).
		Msg("Feed started")
}

// Ready reports whether every backing service is reachable.
func (a *App) Ready(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}
