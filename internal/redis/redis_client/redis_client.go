package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pingTimeout = 5 * time.Second
	maxPoolSize = 512
)

// NewRedisClient dials the instance carrying the per-auction event
// channels and short-lived keys (idempotency, settle locks), and
// verifies it is reachable before returning.
func NewRedisClient(host string, port int) (*redis.Client, error) {
	// Pub/Sub fan-out holds a connection per subscribed auction, so the
	// pool scales with cores rather than a fixed small default.
	poolSize := runtime.NumCPU() * 8
	if poolSize > maxPoolSize {
		poolSize = maxPoolSize
	}

	rc := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", host, port),
		ClientName: "auctionhouse",
		PoolSize:   poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("redis connection failed: %w", err)
		zap.L().Error("redis_connect", zap.Error(err))
		return nil, err
	}
	return rc, nil
}
