package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// ArtifactLocker serializes transition writers per artifact id. The database
// version check remains the authority; the lock only shrinks the race window.
type ArtifactLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewArtifactLocker builds a locker on top of the shared client.
func NewArtifactLocker(r *Redis, ttl time.Duration) *ArtifactLocker {
	if r == nil {
		return nil
	}
	return &ArtifactLocker{client: r.Client, ttl: ttl}
}

// Acquire takes the per-artifact lock, returning false when another writer
// holds it. Locks expire on their own so a crashed writer cannot wedge the
// artifact.
func (l *ArtifactLocker) Acquire(ctx context.Context, artifactID, ownerToken string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, lockKey(artifactID), ownerToken, l.ttl).Result()
}

// Release drops the lock if still held by the given owner.
func (l *ArtifactLocker) Release(ctx context.Context, artifactID, ownerToken string) error {
	if l == nil || l.client == nil {
		return nil
	}
	const script = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        end
        return 0`
	return l.client.Eval(ctx, script, []string{lockKey(artifactID)}, ownerToken).Err()
}

func lockKey(artifactID string) string {
	return "approval:artifact-lock:" + artifactID
}
