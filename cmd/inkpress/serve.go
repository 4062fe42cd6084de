// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress/internal/auth"
	authpg "github.com/inkpress/inkpress/internal/auth/postgres"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/logging"
	"github.com/inkpress/inkpress/internal/newsletter"
	"github.com/inkpress/inkpress/internal/newsletter/email"
	newsletterpg "github.com/inkpress/inkpress/internal/newsletter/postgres"
	"github.com/inkpress/inkpress/internal/observability"
	"github.com/inkpress/inkpress/internal/store"
	"github.com/inkpress/inkpress/internal/web"
	"github.com/inkpress/inkpress/pkg/errutil"
)

const (
	shutdownTimeout      = 5 * time.Second
	sessionSweepInterval = time.Hour
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the newsletter server",
		Long: `Start the web server and the observability endpoint. Pending
database migrations are applied before the server accepts traffic.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	// Flag names mirror config keys so they layer over the file and
	// environment; defaults must match config.Default.
	cmd.Flags().String("server.addr", ":8080", "web listen address")
	cmd.Flags().String("observability.addr", "127.0.0.1:9100", "metrics/health listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "json", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}

	logger := logging.Setup("inkpress", version, cfg.Log.Level, cfg.Log.Format, nil)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrateUp(cfg.Database.URL); err != nil {
		return err
	}
	logger.Info("database schema up to date")

	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		errutil.LogError(logger, "database connection failed", err)
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	hashPool := auth.NewHashWorkerPoolWithRegistry(
		cfg.Hash.Workers, cfg.Hash.QueueSize, obsServer.Registry())
	defer hashPool.Close()

	hasher := auth.NewArgon2idHasher()
	credentials := authpg.NewCredentialRepository(pool)
	sessions := authpg.NewSessionRepository(pool)

	validator := auth.NewCredentialValidator(credentials, hasher, hashPool, logger)
	guard := auth.NewGuard(sessions, cfg.Server.SessionTTL, logger)
	passwords := auth.NewPasswordService(credentials, sessions, validator, hasher, hashPool, logger)

	subscribers := newsletterpg.NewSubscriberRepository(pool)
	subscriptions := newsletter.NewSubscriptionService(subscribers, logger)
	sender := email.NewClient(
		cfg.Email.BaseURL, cfg.Email.Sender,
		auth.NewSecret(cfg.Email.Token), cfg.Email.Timeout)
	publisher := newsletter.NewPublisher(subscribers, sender, logger)

	flashKey := []byte(cfg.Server.FlashKey)
	if len(flashKey) == 0 {
		flashKey = make([]byte, 32)
		if _, err := rand.Read(flashKey); err != nil {
			return oops.Code("FLASH_KEY_FAILED").Wrap(err)
		}
		logger.Warn("server.flash_key not set, generated an ephemeral key; flash notices will not survive restarts")
	}

	webServer := web.NewServer(
		web.Config{
			Addr:          cfg.Server.Addr,
			SecureCookies: cfg.Server.SecureCookies,
			SessionTTL:    cfg.Server.SessionTTL,
		},
		web.Deps{
			Validator:     validator,
			Guard:         guard,
			Passwords:     passwords,
			Users:         credentials,
			Subscriptions: subscriptions,
			Publisher:     publisher,
			Flash:         web.NewFlasher(flashKey),
			Metrics:       obsServer.Metrics(),
			Logger:        logger,
		},
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsErrCh, err := obsServer.Start()
	if err != nil {
		errutil.LogError(logger, "failed to start observability server", err)
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	logger.Info("observability server started", "addr", obsServer.Addr())

	webErrCh, err := webServer.Start()
	if err != nil {
		errutil.LogError(logger, "failed to start web server", err)
		stopServer(obsServer.Stop, logger, "observability")
		return err
	}
	go monitorServerErrors(ctx, cancel, webErrCh, "web")

	go sweepExpiredSessions(ctx, sessions, logger)

	cmd.Println("Inkpress server started")
	<-ctx.Done()
	logger.Info("shutting down")

	stopServer(webServer.Stop, logger, "web")
	stopServer(obsServer.Stop, logger, "observability")
	return nil
}

// monitorServerErrors cancels the run context when a server fails
// after startup.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

func stopServer(stop func(context.Context) error, logger *slog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// sweepExpiredSessions deletes expired session rows periodically so
// the table does not grow without bound.
func sweepExpiredSessions(ctx context.Context, sessions auth.SessionStore, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Warn("expired session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("deleted expired sessions", "count", deleted)
			}
		}
	}
}
