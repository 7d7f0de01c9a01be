package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrOptionNotFound is returned when an option has never been stored.
	ErrOptionNotFound = errors.New("option not found")

	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// OptionRepository is the persistent key/value store for settings.
type OptionRepository interface {
	GetOption(ctx context.Context, key string) (string, error)
	SetOption(ctx context.Context, key, value string) error
}

// SessionRepository stores login sessions with a TTL.
type SessionRepository interface {
	StoreSession(ctx context.Context, s Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// RedisRepository implements OptionRepository and SessionRepository.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) GetOption(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, optionKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOptionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get option %s: %w", key, err)
	}
	return v, nil
}

// options never expire.
func (r *RedisRepository) SetOption(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, optionKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set option %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) StoreSession(ctx context.Context, s Session, ttl time.Duration) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), blob, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisRepository) GetSession(ctx context.Context, id string) (Session, error) {
	blob, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(blob, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (r *RedisRepository) DeleteSession(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

func optionKey(key string) string { return "option:" + key }
func sessionKey(id string) string { return "session:" + id }
