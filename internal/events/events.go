package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/entity"
)

// Type names what happened to a suggestion.
type Type string

const (
	LinkAccepted        Type = "link.accepted"
	SuggestionDismissed Type = "suggestion.dismissed"
)

// Event is published whenever a user acts on a suggestion.
type Event struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	SessionID    string          `json:"session_id,omitempty"`
	SuggestionID string          `json:"suggestion_id"`
	Link         entity.Link     `json:"link"`
	SourceName   string          `json:"source_name,omitempty"`
	TargetName   string          `json:"target_name,omitempty"`
	Kind        entity.LinkKind `json:"kind,omitempty"`
	Confidence   float64         `json:"confidence,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Publisher sends events. Both Bus and Local implement it.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
}

// Subscriber streams events until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan *Event
}

// stamp fills in the id and timestamp when the caller left them empty.
func stamp(ev *Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
}

// Stream is the Redis stream all link events go to.
const Stream = "fived:links"

// Bus publishes link events to a Redis stream.
type Bus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewBus creates a Redis-backed event bus.
func NewBus(ctx context.Context, redisURL string, logger *zap.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Bus{rdb: rdb, logger: logger}, nil
}

// Publish appends an event to the stream.
func (b *Bus) Publish(ctx context.Context, ev *Event) error {
	stamp(ev)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"type": string(ev.Type),
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", Stream, err)
	}

	b.logger.Debug("published event",
		zap.String("type", string(ev.Type)),
		zap.String("suggestion", ev.SuggestionID))
	return nil
}

// Subscribe listens for new events on the stream. Cancel the context to stop;
// the channel is closed afterwards.
func (b *Bus) Subscribe(ctx context.Context) <-chan *Event {
	ch := make(chan *Event, 16)

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			if ctx.Err() != nil {
				return
			}

			results, err := b.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{Stream, lastID},
				Count:   10,
				Block:   2 * time.Second,
			}).Result()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				if !errors.Is(err, redis.Nil) {
					b.logger.Warn("read link events", zap.Error(err))
					select {
					case <-ctx.Done():
						return
					case <-time.After(time.Second):
					}
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev Event
					if err := json.Unmarshal([]byte(data), &ev); err != nil {
						b.logger.Warn("decode link event", zap.String("id", msg.ID), zap.Error(err))
						continue
					}
					select {
					case ch <- &ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Local fans events out to in-process subscribers. It is used when Redis is
// not configured. Slow subscribers drop events rather than block publishers.
type Local struct {
	mu   sync.Mutex
	subs map[chan *Event]struct{}
}

// NewLocal creates an in-process bus.
func NewLocal() *Local {
	return &Local{subs: make(map[chan *Event]struct{})}
}

func (l *Local) Publish(_ context.Context, ev *Event) error {
	stamp(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context) <-chan *Event {
	ch := make(chan *Event, 16)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch
}
