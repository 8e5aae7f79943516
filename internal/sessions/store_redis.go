package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-wizard/internal/resume"
)

const redisKeyPrefix = "wizard:session:"

// RedisStore keeps each document as a JSON string under wizard:session:<id>.
// A single SET replaces the value atomically; TTL of zero means no expiry.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisClient builds a client with the pool settings used across services.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func (s *RedisStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	id, err := validateID(id)
	if err != nil {
		return resume.Document{}, false, err
	}
	raw, err := s.Client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return resume.Document{}, false, nil
		}
		return resume.Document{}, false, unavailable("load", err)
	}
	var doc resume.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return resume.Document{}, false, unavailable("decode", err)
	}
	return doc, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, doc resume.Document) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return unavailable("encode", err)
	}
	if err := s.Client.Set(ctx, redisKeyPrefix+id, raw, s.TTL).Err(); err != nil {
		return unavailable("save", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
