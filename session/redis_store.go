package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// createdField holds the creation time in every session hash so that a
// session without attributes still exists. Attribute keys starting with "_"
// are therefore reserved.
const createdField = "_created"

// RedisStore keeps each session in a hash "<prefix><id>" with one JSON encoded
// field per attribute. Every save rewrites the hash and refreshes its TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "vok:session:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	created := time.Now()
	raw := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k == createdField {
			if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
				created = time.UnixMilli(ms)
			}
			continue
		}
		if strings.HasPrefix(k, "_") {
			continue
		}
		raw[k] = json.RawMessage(v)
	}
	return restore(id, created, raw), nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s.Invalidated() {
		return r.Delete(ctx, s.ID())
	}
	attrs, err := s.encode()
	if err != nil {
		return err
	}
	values := make([]any, 0, 2*len(attrs)+2)
	values = append(values, createdField, strconv.FormatInt(s.CreatedAt().UnixMilli(), 10))
	for k, v := range attrs {
		values = append(values, k, string(v))
	}
	key := r.key(s.ID())
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: save %s: %w", s.ID(), err)
	}
	s.markClean()
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}
