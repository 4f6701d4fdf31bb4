package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	guardKeyPrefix = "f2f:vc:"
	pendingMarker  = "pending"

	defaultGuardRetention = 30 * 24 * time.Hour
)

// RedisGuard claims with SETNX. A claim that is never completed expires
// after pendingTTL, so a crashed issuer does not block the session forever.
type RedisGuard struct {
	client     *redis.Client
	pendingTTL time.Duration
	retention  time.Duration
}

type RedisGuardOption func(*RedisGuard)

// WithGuardRetention sets how long an issued credential stays retrievable.
func WithGuardRetention(d time.Duration) RedisGuardOption {
	return func(g *RedisGuard) {
		if d > 0 {
			g.retention = d
		}
	}
}

func NewRedisGuard(client *redis.Client, pendingTTL time.Duration, opts ...RedisGuardOption) *RedisGuard {
	g := &RedisGuard{client: client, pendingTTL: pendingTTL, retention: defaultGuardRetention}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func guardKey(sessionID string) string { return guardKeyPrefix + sessionID }

func (g *RedisGuard) Claim(ctx context.Context, sessionID string) (bool, string, error) {
	key := guardKey(sessionID)
	// Two rounds cover a pending claim expiring between SETNX and GET.
	for range 2 {
		ok, err := g.client.SetNX(ctx, key, pendingMarker, g.pendingTTL).Result()
		if err != nil {
			return false, "", fmt.Errorf("claim issuance: %w", err)
		}
		if ok {
			return true, "", nil
		}

		val, err := g.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("read issuance claim: %w", err)
		}
		if val == pendingMarker {
			return false, "", nil
		}
		return false, val, nil
	}
	return false, "", nil
}

func (g *RedisGuard) Complete(ctx context.Context, sessionID, vc string) error {
	if err := g.client.Set(ctx, guardKey(sessionID), vc, g.retention).Err(); err != nil {
		return fmt.Errorf("store issued credential: %w", err)
	}
	return nil
}

// Release deletes the claim only while it is still pending.
func (g *RedisGuard) Release(ctx context.Context, sessionID string) error {
	key := guardKey(sessionID)
	txn := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if val != pendingMarker {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	err := g.client.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Someone completed or re-claimed in between; either way it is no longer ours.
		return nil
	}
	if err != nil {
		return fmt.Errorf("release issuance claim: %w", err)
	}
	return nil
}

func (g *RedisGuard) Lookup(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := g.client.Get(ctx, guardKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read issuance claim: %w", err)
	}
	if val == pendingMarker {
		return "", true, nil
	}
	return val, true, nil
}
