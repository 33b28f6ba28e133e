package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/insiderlife/signalfire/internal/config"
	httpapi "github.com/insiderlife/signalfire/internal/http"
	"github.com/insiderlife/signalfire/internal/logging"
	"github.com/insiderlife/signalfire/internal/progress"
	"github.com/insiderlife/signalfire/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogPretty), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Str("storage", cfg.StorageDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		a.tracker.Run(ctx, progress.DefaultSweepInterval, progress.DefaultRetention)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Open event streams end when their brokers close.
		a.feed.Close()
		a.tracker.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	repo, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer repo.Close()

	var sum seed.Summary
	if seedIfEmpty {
		sum, err = seed.LoadIfEmpty(cmd.Context(), repo)
	} else {
		var f *seed.Fixtures
		if f, err = seed.Default(); err == nil {
			sum, err = seed.Load(cmd.Context(), repo, f)
		}
	}
	if err != nil {
		return err
	}

	if sum.Skipped {
		logger.Info().Msg("store already has data, nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d courses, %d content items, %d series, %d funnels, %d CTAs, %d activities\n",
		sum.Courses, sum.Content, sum.Series, sum.Funnels, sum.CTAs, sum.Activities)
	return nil
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg := config.Config{
		StorageDriver: "memory",
		JWTSecret:     "route-listing-only",
		SessionTTL:    time.Hour,
		ReferralTTL:   time.Hour,
	}

	a, err := newApp(cmd.Context(), cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	defer a.Close()

	routes, err := httpapi.Routes(a.handler)
	if err != nil {
		return err
	}
	for _, r := range routes {
		fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", r.Method, r.Path)
	}
	return nil
}
