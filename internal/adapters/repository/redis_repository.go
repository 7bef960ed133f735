package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/config"
)

// RedisRepository stores each slot under the key <prefix><slot>.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository connects to Redis and verifies the connection
func NewRedisRepository(ctx context.Context, cfg config.RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.GetAddr(), err)
	}

	return &RedisRepository{client: client, prefix: cfg.Prefix}, nil
}

func (r *RedisRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	if err := r.client.Set(ctx, r.keyFor(slot), content, 0).Err(); err != nil {
		return fmt.Errorf("could not set %q: %w", r.keyFor(slot), err)
	}
	return nil
}

func (r *RedisRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	content, err := r.client.Get(ctx, r.keyFor(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%q: %w", r.keyFor(slot), entities.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get %q: %w", r.keyFor(slot), err)
	}
	return content, nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) keyFor(slot entities.Slot) string {
	return r.prefix + slot.String()
}
