package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/config"
	"github.com/carlitos-finanzas/carlitos/internal/remote"
	"github.com/carlitos-finanzas/carlitos/internal/server"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var (
		serverConfigPath string
		address          string
		maxBodySize      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the placeholder page",
		RunE: func(cmd *cobra.Command, args []string) error {
			const op = "main.serve"

			srvCfg, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				srvCfg.Address = address
			}
			if maxBodySize != "" {
				size, err := server.ParseSize(maxBodySize)
				if err != nil {
					return err
				}
				srvCfg.SetBodySizeBytes(size)
			}

			// The server config's logging section wins over the application's.
			logger := a.logger
			if srvCfg.Logging != (config.LoggingConfig{}) {
				logger, err = initializeLogger(srvCfg.Logging, a.logLevel)
				if err != nil {
					return fmt.Errorf("failed to initialize server logger: %w", err)
				}
				defer func() { _ = logger.Sync() }()
			}

			mc, err := a.conf.MentorConfig()
			if err != nil {
				return err
			}
			scorer, err := mentor.NewScorer(mc, nil)
			if err != nil {
				return err
			}

			svc, closeLedger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer func() {
				if err := closeLedger(); err != nil {
					logger.Warn("failed to close ledger", zap.String("op", op), zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.conf.SyncEnabled() {
				scheduler, err := remote.NewScheduler(logger, a.conf.Sync.Schedule, svc.Sync)
				if err != nil {
					return err
				}
				scheduler.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := scheduler.Stop(stopCtx); err != nil {
						logger.Warn("sync scheduler did not stop in time", zap.String("op", op), zap.Error(err))
					}
				}()
			}

			var limiter *server.RateLimiter
			if srvCfg.RateLimit > 0 {
				limiter = server.NewRateLimiter(srvCfg.RateLimit, srvCfg.RateWindowDuration())
				defer limiter.Stop()
			}

			handler := server.NewHandler(logger, server.Dependencies{
				Ledger:    svc,
				Scorer:    scorer,
				Simulator: a.conf.Simulator,
				Limiter:   limiter,
			}, srvCfg.BodySizeBytes(), version)

			httpServer := &http.Server{
				Addr:              srvCfg.Address,
				Handler:           handler,
				ReadTimeout:       srvCfg.ReadTimeoutDuration(),
				ReadHeaderTimeout: srvCfg.ReadTimeoutDuration(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting HTTP server",
					zap.String("op", op),
					zap.String("address", srvCfg.Address),
					zap.Int64("maxBodySize", srvCfg.BodySizeBytes()),
					zap.Int("rateLimit", srvCfg.RateLimit),
					zap.Bool("sync", a.conf.SyncEnabled()),
				)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down HTTP server", zap.String("op", op))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	cmd.Flags().StringVar(&maxBodySize, "max-body-size", "", "request body limit override, e.g. 256K")
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.conf.YAML()
			if err != nil {
				return err
			}
			_, err = a.out.Write(out)
			return err
		},
	}
}
