// Command server runs the flock social network backend.
//
// Configuration is layered: built-in defaults, an optional YAML config
// file (-config flag, FLOCK_CONFIG env var, ./config.yaml, or
// /etc/flock/config.yaml), and FLOCK_* environment variable overrides.
// The session signing secret (auth.secret) is required.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/flock-social/flock/pkg/auth"
	"github.com/flock-social/flock/pkg/auth/session"
	"github.com/flock-social/flock/pkg/config"
	"github.com/flock-social/flock/pkg/debug"
	"github.com/flock-social/flock/pkg/social"
	"github.com/flock-social/flock/pkg/storage/memory"
	"github.com/flock-social/flock/pkg/storage/postgres"
	transporthttp "github.com/flock-social/flock/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	debug.Init(cfg.Observability.Log.Debug, cfg.Observability.Log.Level)

	// The signing secret is validated at load time; an empty secret here
	// would mean sessions can never be verified.
	sessions, err := session.New(cfg.Auth.Secret)
	if err != nil {
		return fmt.Errorf("creating session issuer: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	limiter := auth.NewLoginLimiter(cfg.Auth.LoginRateLimit)

	api := transporthttp.NewAPI(store, sessions, limiter, transporthttp.Config{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		MaxBodySize:    cfg.Server.MaxBodySize,
		SecureCookies:  cfg.Auth.SecureCookiesEnabled(),
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
	})

	srv := transporthttp.NewServer(api,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	slog.Info("flock starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"metrics", cfg.Observability.Metrics.Enabled,
	)

	return srv.ListenAndServe()
}

// newStore creates the configured storage backend.
func newStore(cfg *config.Config) (social.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		slog.Warn("in-memory storage loses all data on restart; use postgres in production")
		return memory.New(), nil
	}
}
