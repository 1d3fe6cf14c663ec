package broker

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig mirrors the teacher's redisclient.Config, extended with the
// TLS flag the orchestrator CLI exposes as --redis-ssl.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// RedisBroker is the production Broker backed by Redis lists.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(cfg RedisConfig) *RedisBroker {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &RedisBroker{client: redis.NewClient(opts)}
}

func (b *RedisBroker) Push(ctx context.Context, queue string, payload string) error {
	return b.client.LPush(ctx, queue, payload).Err()
}

func (b *RedisBroker) PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, string, bool, error) {
	res, err := b.client.BRPop(ctx, timeout, queues...).Result()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	if len(res) != 2 {
		return "", "", false, nil
	}
	return res[0], res[1], true, nil
}

func (b *RedisBroker) Length(ctx context.Context, queue string) (int64, error) {
	return b.client.LLen(ctx, queue).Result()
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
