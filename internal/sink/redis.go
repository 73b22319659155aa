// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/recommend"
)

// DefaultKeyPrefix namespaces keys when no prefix is configured.
const DefaultKeyPrefix = "latentrank"

// RedisOptions configures the Redis sink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key written. Empty means DefaultKeyPrefix.
	KeyPrefix string

	// TTL expires written keys; 0 keeps them forever.
	TTL time.Duration

	// DialTimeout bounds connection attempts; 0 uses the client default.
	DialTimeout time.Duration
}

// RedisSink stores recommendations in Redis.
//
// Each user's list is a JSON array at {prefix}:user:{userID}. The JSON array
// of all user IDs from the last run is stored at {prefix}:users. All keys of
// one run are written in a single pipeline.
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSink connects to Redis and verifies the connection with PING.
//
//nolint:gocritic // RedisOptions is passed once at startup
func NewRedisSink(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() // best effort, the ping error is what matters
		return nil, fmt.Errorf("connect to redis at %s: %w: %w", opts.Addr, err, recommend.ErrIO)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &RedisSink{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}, nil
}

// Name identifies the sink in logs and metrics.
func (s *RedisSink) Name() string {
	return "redis"
}

// UserKey returns the key holding userID's list.
func (s *RedisSink) UserKey(userID string) string {
	return userKey(s.prefix, userID)
}

// IndexKey returns the key holding the user index.
func (s *RedisSink) IndexKey() string {
	return indexKey(s.prefix)
}

func userKey(prefix, userID string) string {
	return prefix + ":user:" + userID
}

func indexKey(prefix string) string {
	return prefix + ":users"
}

// Write stores every list and the user index in one pipeline.
func (s *RedisSink) Write(ctx context.Context, recs []recommend.Recommendation) error {
	payloads, err := encodeLists(s.prefix, recs)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, p := range payloads {
		pipe.Set(ctx, p.key, p.value, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w: %w", err, recommend.ErrIO)
	}

	logging.Debug().
		Int("keys", len(payloads)).
		Str("prefix", s.prefix).
		Dur("ttl", s.ttl).
		Msg("Wrote recommendations to Redis")
	return nil
}

// Close closes the client.
func (s *RedisSink) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w: %w", err, recommend.ErrIO)
	}
	return nil
}

type keyValue struct {
	key   string
	value []byte
}

// encodeLists renders one entry per user followed by the user index.
func encodeLists(prefix string, recs []recommend.Recommendation) ([]keyValue, error) {
	out := make([]keyValue, 0, len(recs)+1)
	userIDs := make([]string, 0, len(recs))

	for _, rec := range recs {
		items := rec.ItemIDs
		if items == nil {
			items = []string{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode recommendations for %q: %w", rec.UserID, err)
		}
		out = append(out, keyValue{key: userKey(prefix, rec.UserID), value: data})
		userIDs = append(userIDs, rec.UserID)
	}

	index, err := json.Marshal(userIDs)
	if err != nil {
		return nil, fmt.Errorf("encode user index: %w", err)
	}
	out = append(out, keyValue{key: indexKey(prefix), value: index})
	return out, nil
}
