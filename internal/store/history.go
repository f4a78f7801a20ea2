package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mosaibah/askdocs/config"
	"github.com/redis/go-redis/v9"
)

// Message is one conversation turn.
type Message struct {
	Role string    `json:"role"` // user or assistant
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// History keeps recent conversation turns per session.
type History interface {
	Append(ctx context.Context, session string, msg Message) error
	Recent(ctx context.Context, session string, n int) ([]Message, error)
}

// RedisHistory stores turns in a per-session list with a TTL.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistory(cfg config.RedisConfig) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisHistory{client: client, ttl: ttl}, nil
}

func historyKey(session string) string { return "askdocs:history:" + session }

func (h *RedisHistory) Append(ctx context.Context, session string, msg Message) error {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := historyKey(session)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -200, -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, session string, n int) ([]Message, error) {
	if n <= 0 {
		n = 10
	}
	raws, err := h.client.LRange(ctx, historyKey(session), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	out := make([]Message, 0, len(raws))
	for _, raw := range raws {
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// MemoryHistory is the fallback when Redis is not configured.
type MemoryHistory struct {
	mu       sync.Mutex
	sessions map[string][]Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]Message)}
}

func (h *MemoryHistory) Append(ctx context.Context, session string, msg Message) error {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := append(h.sessions[session], msg)
	if len(msgs) > 200 {
		msgs = msgs[len(msgs)-200:]
	}
	h.sessions[session] = msgs
	return nil
}

func (h *MemoryHistory) Recent(ctx context.Context, session string, n int) ([]Message, error) {
	if n <= 0 {
		n = 10
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.sessions[session]
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
