package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cssmith8/rustical-bot/internal/bot"
	"github.com/cssmith8/rustical-bot/internal/config"
	"github.com/cssmith8/rustical-bot/internal/dashboard"
	"github.com/cssmith8/rustical-bot/internal/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.WithField("mode", cfg.Environment.Mode).Info("starting options bot")

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("bot exited")
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Each user's file store sits behind a circuit breaker so repeated disk
	// failures fail fast instead of hammering a broken volume.
	stores := storage.NewManager(cfg.Storage.Path, func(path string) (storage.Interface, error) {
		_, statErr := os.Stat(path)
		js, err := storage.NewJSONStorage(path)
		if err != nil {
			return nil, err
		}
		// fresh stores take the configured commission; existing files keep
		// whatever the user has set
		if os.IsNotExist(statErr) {
			if err := js.SetCommission(cfg.Trading.Commission); err != nil {
				return nil, err
			}
		}
		return storage.NewBreakerStore(js, logger), nil
	})

	discord, err := bot.New(cfg, stores, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return discord.Run(ctx)
	})

	if cfg.Dashboard.Enabled {
		srv := dashboard.NewServer(dashboard.Config{
			Port:      cfg.Dashboard.Port,
			AuthToken: cfg.Dashboard.AuthToken,
		}, stores, logger)

		g.Go(func() error {
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		})
	}

	if cfg.Discord.DailySummary != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.Discord.DailySummary, func() {
			if err := announceSummary(discord, stores); err != nil {
				logger.WithError(err).Warn("daily summary failed")
			}
		}); err != nil {
			return fmt.Errorf("scheduling daily summary: %w", err)
		}
		g.Go(func() error {
			scheduler.Start()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return ctx.Err()
		})
	}

	return g.Wait()
}

// announceSummary posts open-position counts across all users to the
// announce channel.
func announceSummary(discord *bot.Bot, stores *storage.Manager) error {
	ids, err := stores.UserIDs()
	if err != nil {
		return err
	}
	var users, open int
	for _, id := range ids {
		store, err := stores.ForUser(id)
		if err != nil {
			return err
		}
		positions, err := store.Positions()
		if err != nil {
			return err
		}
		n := 0
		for i := range positions {
			if !positions[i].IsClosed() {
				n++
			}
		}
		if n > 0 {
			users++
			open += n
		}
	}
	if open == 0 {
		return discord.Announce("Daily summary: no open positions")
	}
	return discord.Announce(fmt.Sprintf("Daily summary: %d open positions across %d users", open, users))
}
