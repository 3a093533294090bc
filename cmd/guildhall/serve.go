package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lborres/guildhall"
	fiberadapter "github.com/lborres/guildhall/adapters/fiber"
	pgxadapter "github.com/lborres/guildhall/adapters/pgx"
	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/internal/config"
	"github.com/lborres/guildhall/internal/logging"
	"github.com/lborres/guildhall/internal/observability"
	"github.com/lborres/guildhall/pkg/crypto"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, unless disabled, the metrics and health
listener. Configuration comes from --config, then flags, then the
environment for the auth secret and database URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup("guildhall", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting guildhall",
		"http_addr", cfg.HTTP.Addr,
		"base_path", cfg.HTTP.BasePath,
		"hasher", cfg.Auth.Hasher,
	)

	pool, err := pgxadapter.Connect(ctx, pgxadapter.ConnConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		Attempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	store := pgxadapter.New(pool, pgxadapter.WithQueryTimeout(cfg.Database.QueryTimeout))

	hasher, err := crypto.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	var (
		obsServer *observability.Server
		obsErrCh  <-chan error
		opts      []fiberadapter.Option
	)
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(cfg.Observability.Addr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx) == nil
		}, logger)

		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := obsServer.Stop(stopCtx); err != nil {
				logger.Warn("observability server shutdown failed", "error", err)
			}
		}()

		opts = append(opts, fiberadapter.WithRecorder(obsServer.Metrics()))
	}

	app := fiber.New(fiber.Config{
		AppName:      "guildhall",
		ErrorHandler: fiberadapter.ErrorHandler(logger),
	})

	g, err := guildhall.New(guildhall.Config{
		Secret:         cfg.Auth.Secret,
		Database:       store,
		HTTP:           fiberadapter.New(app, opts...),
		SessionConfig:  &core.SessionConfig{MaxAge: cfg.Auth.TokenTTL},
		PasswordHasher: hasher,
		CacheSize:      cfg.Auth.RevocationCacheSize,
		BasePath:       cfg.HTTP.BasePath,
		CookieSecure:   cfg.HTTP.CookieSecure,
		Logger:         logger,
	})
	if err != nil {
		return oops.Code("SERVER_INIT_FAILED").Wrap(err)
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go g.Sessions.RunJanitor(janitorCtx, cfg.Auth.PurgeInterval, logger)

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- app.Listen(cfg.HTTP.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	logger.Info("http server started", "addr", cfg.HTTP.Addr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-httpErrCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
		return nil
	case err := <-obsErrCh:
		if err != nil {
			return oops.Code("OBSERVABILITY_SERVER_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
