// Package bootstrap builds the runtime dependencies shared by the API server
// and the operator CLI from a loaded Config.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/contractor-leads/internal/chat"
	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
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

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; chat history stays in memory", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildHistoryStore picks the Redis store when a client is available.
func BuildHistoryStore(client *redis.Client, ttl time.Duration) chat.HistoryStore {
	if client == nil {
		return chat.NewMemoryHistoryStore(ttl)
	}
	return chat.NewRedisHistoryStore(client, ttl, nil)
}

// ConnectPostgresPool opens and pings a pool. An empty URL returns nil so
// callers can fall back to the in-memory stores.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to postgres")
	return pool, nil
}

// Stores groups the lead repository and profile store for one backend.
type Stores struct {
	Leads    leads.Repository
	Profiles dashboard.ProfileStore
}

// BuildStores returns Postgres-backed stores when pool is set and the
// in-memory ones otherwise.
func BuildStores(pool *pgxpool.Pool, logger *logging.Logger) Stores {
	if pool == nil {
		return Stores{
			Leads:    leads.NewInMemoryRepository(),
			Profiles: dashboard.NewMemoryProfileStore(),
		}
	}
	return Stores{
		Leads:    leads.NewPostgresRepository(pool, logger),
		Profiles: dashboard.NewPostgresProfileStore(pool),
	}
}
