package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gigflow/marketplace/internal/api"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/core/service"
	"github.com/gigflow/marketplace/internal/infrastructure/config"
	"github.com/gigflow/marketplace/internal/infrastructure/db/memory"
	mongostore "github.com/gigflow/marketplace/internal/infrastructure/db/mongo"
	redisrelay "github.com/gigflow/marketplace/internal/infrastructure/db/redis"
	"github.com/gigflow/marketplace/internal/infrastructure/notify"
	"github.com/gigflow/marketplace/internal/infrastructure/presence"
	"github.com/gigflow/marketplace/internal/infrastructure/ws"
	"github.com/gigflow/marketplace/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the marketplace API.

Environment:
  PORT, ENV, LOG_LEVEL, JWT_SECRET (required)
  STORE_BACKEND       mongo | memory
  MONGO_URI, MONGO_DB, MONGO_TIMEOUT
  REDIS_ADDR          enables the cross-instance notification relay
  REDIS_PASSWORD, REDIS_DB, REDIS_CHANNEL
  NOTIFY_WORKERS, NOTIFY_BUFFER
  PRESENCE_SEND_BUFFER, PRESENCE_WRITE_TIMEOUT
  CORS_ALLOWED_ORIGINS, SHUTDOWN_TIMEOUT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

// closer releases one dependency during shutdown.
type closer func(ctx context.Context) error

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "gigflow-api",
	})

	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("shutdown step failed")
			}
		}
	}()

	// --- Record store ---
	store, storeCloser, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if storeCloser != nil {
		closers = append(closers, storeCloser)
	}

	// --- Presence and notifications ---
	registry := presence.NewRegistry()

	var notifier ports.Notifier = notify.NewNotifier(registry, logger.Component("notifier"))
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisrelay.Connect(ctx, redisrelay.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		closers = append(closers, func(context.Context) error { return rdb.Close() })

		relay := redisrelay.NewRelay(rdb, cfg.Redis.Channel, registry, notifier, logger.Component("relay"))
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification relay stopped")
			}
		}()
		notifier = relay
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("redis relay enabled")
	}

	// closers run in reverse: live connections go first, then Redis and the store
	closers = append(closers, func(context.Context) error {
		registry.Close()
		return nil
	})

	dispatcher := notify.NewDispatcher(cfg.Notify.Workers, cfg.Notify.Buffer, notifier, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Services and HTTP ---
	e := api.NewRouter(api.Dependencies{
		Gigs:           service.NewGigService(store, logger.Component("gigs")),
		Bids:           service.NewBidService(store, dispatcher, logger.Component("bids")),
		Store:          store,
		Redis:          rdb,
		Presence:       registry,
		Upgrader:       ws.NewUpgrader(cfg.AllowedOrigins, ws.Options{SendBuffer: cfg.Presence.SendBuffer, WriteTimeout: cfg.Presence.WriteTimeout}),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	// websocket connections are hijacked and closed by the registry closer
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Store, closer, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.NewStore(), nil, nil
	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.NewStore(client, db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return store, client.Disconnect, nil
	}
}
