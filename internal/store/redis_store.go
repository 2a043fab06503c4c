package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/utils"
)

const sessionKeyPrefix = "mockvox:session:"

// RedisStore backs sessions with a shared cache so stateless request
// handlers (the serverless deployment mode) see one source of truth.
// Expiry rides on the key TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, sess *models.Session) error {
	return s.Put(ctx, sess)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// data corrupt: treat as miss by deleting
		_ = s.rdb.Del(ctx, sessionKey(id)).Err()
		return nil, utils.ErrNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.SessionID), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, sessionKeyPrefix))
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}
