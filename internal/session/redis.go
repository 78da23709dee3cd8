package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
)

const (
	keyPrefix  = "melvin:session:"
	DefaultTTL = 24 * time.Hour
)

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	log *logging.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisStore connects to addr and pings it. ttl <= 0 selects DefaultTTL.
func NewRedisStore(log *logging.Logger, addr string, ttl time.Duration) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		log: log.With("service", "RedisSessionStore"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		r.log.Warn("discarding unreadable session", "session_id", id, "error", err)
		return Session{}, false, nil
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	if s.ID == "" {
		return ErrNoID
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+s.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
