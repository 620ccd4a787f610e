package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hummingbird-labs/hummingbird/config"
	"github.com/hummingbird-labs/hummingbird/models"
)

// RedisStore persists sessions as JSON blobs in redis with a TTL, so
// abandoned conversations age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.SessionsConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string { return "session:" + id }

func (s *RedisStore) Ensure(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}
	existing, err := s.Get(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrSessionNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	created := &Session{ID: id, Status: StatusGathering, CreatedAt: now, UpdatedAt: now}
	if err := s.write(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return s.write(ctx, sess)
}

func (s *RedisStore) write(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session %s: %w", sess.ID, err)
	}
	return nil
}
