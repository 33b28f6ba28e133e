package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/insiderlife/signalfire/internal/activity"
	"github.com/insiderlife/signalfire/internal/auth"
	"github.com/insiderlife/signalfire/internal/catalog"
	"github.com/insiderlife/signalfire/internal/config"
	"github.com/insiderlife/signalfire/internal/dashboard"
	"github.com/insiderlife/signalfire/internal/funnel"
	httpapi "github.com/insiderlife/signalfire/internal/http"
	"github.com/insiderlife/signalfire/internal/profile"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/referral"
	"github.com/insiderlife/signalfire/internal/seed"
	"github.com/insiderlife/signalfire/internal/series"
	"github.com/insiderlife/signalfire/internal/storage"
)

// app owns everything a running server needs.
type app struct {
	repo    storage.Repository
	feed    *activity.Feed
	tracker *progress.Tracker
	handler http.Handler
}

func openStore(cfg config.Config) (storage.Repository, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return storage.NewSQLiteRepository(cfg.StorageDSN)
	case "postgres":
		return storage.NewPostgresRepository(cfg.StorageDSN)
	default:
		return storage.NewMemoryRepository(), nil
	}
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	repo, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}

	if cfg.Seed {
		sum, err := seed.LoadIfEmpty(ctx, repo)
		if err != nil {
			repo.Close()
			return nil, err
		}
		if !sum.Skipped {
			logger.Info().
				Int("courses", sum.Courses).
				Int("content", sum.Content).
				Int("series", sum.Series).
				Int("funnels", sum.Funnels).
				Msg("seeded empty store")
		}
	}

	feed := activity.NewFeed(repo)
	tracker := progress.NewTracker()
	refs := referral.NewService(repo)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	authSvc := auth.NewService(repo, refs, feed, tokens, logger.With().Str("component", "auth").Logger(),
		auth.WithAdminCheck(cfg.IsAdminEmail))

	svc := httpapi.Services{
		Auth:      authSvc,
		Referrals: refs,
		Catalog:   catalog.NewService(repo, feed, logger.With().Str("component", "catalog").Logger()),
		Series:    series.NewService(repo, repo, tracker, feed, logger.With().Str("component", "series").Logger()),
		Funnels:   funnel.NewService(repo),
		Profiles:  profile.NewService(repo, feed, logger.With().Str("component", "profile").Logger()),
		Activity:  feed,
		Dashboard: dashboard.NewService(repo, feed, refs, tracker),
	}

	handler := httpapi.NewRouter(svc, httpapi.Options{
		StaticDir:     cfg.StaticDir,
		ReferralTTL:   cfg.ReferralTTL,
		SecureCookies: !cfg.Dev,
		Logger:        logger,
	})

	return &app{repo: repo, feed: feed, tracker: tracker, handler: handler}, nil
}

func (a *app) Close() error {
	a.feed.Close()
	a.tracker.Close()
	return a.repo.Close()
}
