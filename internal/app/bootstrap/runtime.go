// Package bootstrap wires the storage backends so the api and migrate
// binaries share one initialization path.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/platform/internal/appointments"
	"github.com/clinicdesk/platform/internal/clients"
	appconfig "github.com/clinicdesk/platform/internal/config"
	"github.com/clinicdesk/platform/internal/snapshot"
	"github.com/clinicdesk/platform/pkg/logging"
)

// BuildRedisClient returns a configured redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPgxPool connects the postgres pool, or returns nil when DATABASE_URL
// is unset so the in-memory mode kicks in.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres not available", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres ping failed", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// Stores bundles the persistence layer handed to the handlers.
type Stores struct {
	Clients      clients.Repository
	Appointments appointments.Repository

	// Snapshot is non-nil only in in-memory mode with redis available; the
	// caller runs it and triggers Restore on boot.
	Snapshot *snapshot.Runner
}

// BuildStores picks the persistence mode: postgres when a pool is available,
// otherwise in-memory with an optional redis snapshot loop.
func BuildStores(cfg *appconfig.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *logging.Logger) *Stores {
	if logger == nil {
		logger = logging.Default()
	}

	if pool != nil {
		logger.Info("using postgres persistence")
		return &Stores{
			Clients:      clients.NewPostgresRepository(pool),
			Appointments: appointments.NewPostgresRepository(pool),
		}
	}

	clientRepo := clients.NewInMemoryRepository()
	apptRepo := appointments.NewInMemoryRepository()
	s := &Stores{Clients: clientRepo, Appointments: apptRepo}

	if redisClient != nil {
		s.Snapshot = snapshot.NewRunner(snapshot.NewStore(redisClient), clientRepo, apptRepo, cfg.SnapshotInterval, logger)
		logger.Info("using in-memory persistence with redis snapshots", "interval", cfg.SnapshotInterval)
	} else {
		logger.Warn("using in-memory persistence without snapshots, state is lost on restart")
	}
	return s
}
