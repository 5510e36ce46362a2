// Package app wires the store, the Reddit client and the core services
// together for the command line entry points.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"Readout/internal/config"
	"Readout/internal/core/reader"
	"Readout/internal/core/subreddits"
	"Readout/internal/core/users"
	"Readout/internal/core/votes"
	"Readout/internal/db/localstore"
	"Readout/internal/reddit"
)

// App holds the long-lived components of a running process.
type App struct {
	DB       *sql.DB
	Store    *localstore.Store
	Client   reddit.Client
	Enricher *users.Enricher
	Reader   reader.Service
	Logger   *slog.Logger
}

// NewLogger creates a text logger on stderr at the named level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// TokenProvider picks the static token when one is configured, otherwise the
// refresh token flow.
func TokenProvider(cfg *config.Config) reddit.TokenProvider {
	if cfg.UsesStaticToken() {
		return reddit.StaticToken(cfg.RedditAccessToken)
	}
	return reddit.NewRefreshTokenProvider(reddit.RefreshTokenConfig{
		AuthURL:      cfg.RedditAuthURL,
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		RefreshToken: cfg.RedditRefreshToken,
		UserAgent:    cfg.UserAgent,
	})
}

// Build opens and migrates the store and constructs every service.
// client may be nil, in which case one is built from cfg.
func Build(ctx context.Context, cfg *config.Config, client reddit.Client, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := localstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := localstore.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		_ = db.Close()
		return nil, err
	}

	if client == nil {
		client, err = reddit.NewClient(reddit.Options{
			Tokens:            TokenProvider(cfg),
			BaseURL:           cfg.RedditBaseURL,
			UserAgent:         cfg.UserAgent,
			RequestsPerMinute: cfg.RedditRequestsPerMinute,
			Logger:            logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create reddit client: %w", err)
		}
	}

	store := localstore.New(db, logger)
	userRepo := localstore.NewUserRepository(store)
	enricher := users.NewEnricher(userRepo, client, users.EnricherOptions{
		Logger:      logger,
		Concurrency: cfg.EnrichConcurrency,
	})

	svc, err := reader.NewService(reader.Config{
		Remote:        client,
		Posts:         localstore.NewPostRepository(store),
		Comments:      localstore.NewCommentRepository(store),
		Users:         userRepo,
		MediatorStore: localstore.NewMediatorStore(store),
		Votes:         votes.NewService(client, localstore.NewVoteStore(store), logger),
		Subreddits:    subreddits.NewService(localstore.NewSubredditRepository(store), client, logger),
		Enricher:      enricher,
		Invalidator:   store.Tracker(),
		Logger:        logger,
		PageSize:      cfg.PageSize,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		DB:       db,
		Store:    store,
		Client:   client,
		Enricher: enricher,
		Reader:   svc,
		Logger:   logger,
	}, nil
}

// Close waits for background enrichment and closes the database.
func (a *App) Close() error {
	a.Enricher.Wait()
	return a.Store.Close()
}
