// Package session tracks suggestions a user dismissed during one editing
// session. Dismissals expire with the session and are never written to the
// entity store.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL is how long an idle session keeps its dismissals.
const DefaultTTL = 12 * time.Hour

// Store records dismissed suggestion ids per session.
type Store interface {
	Dismiss(ctx context.Context, sessionID, suggestionID string) error
	Dismissed(ctx context.Context, sessionID string) ([]string, error)
	Clear(ctx context.Context, sessionID string) error
}

// Memory is an in-process Store. Each Dismiss refreshes the session's expiry
// and, at most once per ttl, drops every expired session.
type Memory struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	sessions  map[string]*memSession
	nextSweep time.Time
}

type memSession struct {
	ids     map[string]struct{}
	expires time.Time
}

// NewMemory creates an in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, sessions: make(map[string]*memSession)}
}

func (m *Memory) Dismiss(_ context.Context, sessionID, suggestionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	s := m.live(sessionID)
	if s == nil {
		s = &memSession{ids: make(map[string]struct{})}
		m.sessions[sessionID] = s
	}
	s.ids[suggestionID] = struct{}{}
	s.expires = m.now().Add(m.ttl)
	return nil
}

// Dismissed returns the session's dismissed ids in sorted order.
func (m *Memory) Dismissed(_ context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.live(sessionID)
	if s == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// live returns the session if it exists and has not expired. Callers hold mu.
func (m *Memory) live(sessionID string) *memSession {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	if m.now().After(s.expires) {
		delete(m.sessions, sessionID)
		return nil
	}
	return s
}

// sweep removes expired sessions once the sweep interval has passed.
// Callers hold mu.
func (m *Memory) sweep() {
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	for id, s := range m.sessions {
		if now.After(s.expires) {
			delete(m.sessions, id)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

const keyPrefix = "fived:dismissed:"

// Redis stores each session as a set with a sliding expiry.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to Redis. A non-positive ttl uses DefaultTTL.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisClient(rdb, ttl, logger), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, logger: logger}
}

func (r *Redis) Dismiss(ctx context.Context, sessionID, suggestionID string) error {
	key := keyPrefix + sessionID
	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, key, suggestionID)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dismiss %s in session %s: %w", suggestionID, sessionID, err)
	}
	r.logger.Debug("suggestion dismissed",
		zap.String("session", sessionID),
		zap.String("suggestion", suggestionID))
	return nil
}

// Dismissed returns the session's dismissed ids in sorted order.
func (r *Redis) Dismissed(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("load dismissed for session %s: %w", sessionID, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Redis) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
