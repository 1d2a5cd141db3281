// Package redisrepo keeps the console session in a redis hash so several terminals
// of the same operator can share it.
package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/condo-console/sessions"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type Option func(*Repo)

// WithTTL expires the stored session after d of inactivity. Zero keeps it until cleared.
func WithTTL(d time.Duration) Option {
	return func(r *Repo) {
		r.ttl = d
	}
}

// New stores every session field in the hash named key
func New(client *redis.Client, key string, options ...Option) *Repo {
	r := &Repo{client: client, key: key}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewClient connects and pings with a short timeout
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *Repo) GetAll(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := r.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", r.key, err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// PutAll writes every field (and the TTL) in one MULTI/EXEC block
func (r *Repo) PutAll(ctx context.Context, values map[string]string) error {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}
	return nil
}

func (r *Repo) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", r.key, err)
	}
	return nil
}
