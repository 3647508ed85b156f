// Package chat is the natural-language front-end over the booking
// ledger: an agent that asks a language model to pick one ledger
// operation, runs it, and asks the model again to phrase the result.
// Conversation history is optional and kept in Redis with a TTL.
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Roles used in Message.Role.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one entry of a conversation.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History stores conversations by session ID.
type History interface {
	Append(ctx context.Context, session string, msgs ...Message) error
	Load(ctx context.Context, session string, limit int) ([]Message, error)
	Clear(ctx context.Context, session string) error
	Len(ctx context.Context, session string) (int64, error)
}

// RedisHistory keeps each session as a Redis list under prefix:session.
// Every append refreshes the list's TTL, so idle sessions expire.
type RedisHistory struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisHistory returns a History backed by rdb.  Defaults: prefix
// "chat_history", TTL 24h.
func NewRedisHistory(rdb *redis.Client, prefix string, ttl time.Duration) *RedisHistory {
	if prefix == "" {
		prefix = "chat_history"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisHistory{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (h *RedisHistory) key(session string) string { return h.prefix + ":" + session }

func (h *RedisHistory) Append(ctx context.Context, session string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	key := h.key(session)
	_, err := h.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, vals...)
		p.Expire(ctx, key, h.ttl)
		return nil
	})
	return err
}

// Load returns the last limit messages, oldest first; limit <= 0 returns
// the whole session.  Entries that fail to decode are skipped.
func (h *RedisHistory) Load(ctx context.Context, session string, limit int) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := h.rdb.LRange(ctx, h.key(session), start, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, s := range raw {
		var m Message
		if json.Unmarshal([]byte(s), &m) == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (h *RedisHistory) Clear(ctx context.Context, session string) error {
	return h.rdb.Del(ctx, h.key(session)).Err()
}

func (h *RedisHistory) Len(ctx context.Context, session string) (int64, error) {
	return h.rdb.LLen(ctx, h.key(session)).Result()
}
