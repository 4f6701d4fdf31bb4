package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"f2f-cri/internal/platform/config"
	"f2f-cri/internal/platform/database"
	"f2f-cri/internal/platform/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Server.LogLevel)

			pool, err := database.New(ctx, cfg.Database)
			if err != nil {
				return err
			}
			if pool == nil {
				return errors.New("DATABASE_URL is not set")
			}
			defer pool.Close() //nolint:errcheck

			if err := database.Migrate(ctx, pool.DB()); err != nil {
				return err
			}
			version, err := database.Version(ctx, pool.DB())
			if err != nil {
				return err
			}
			log.Info("migrations applied", "version", version)
			return nil
		},
	}
}

func newExpireSessionsCommand() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "expire-sessions",
		Short: "Notify the relying party about journeys whose branch visit window closed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if every <= 0 {
				return a.sweep(ctx)
			}
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				if err := a.sweep(ctx); err != nil {
					a.logger.Error("expiry sweep failed", "error", err)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "Repeat the sweep at this interval instead of running once")
	return cmd
}

func (a *app) sweep(ctx context.Context) error {
	sent, err := a.service.ExpireSessions(ctx)
	if err != nil {
		return fmt.Errorf("expire sessions (%d notified): %w", sent, err)
	}
	a.logger.Info("expiry sweep complete", "notified", sent)
	return nil
}
