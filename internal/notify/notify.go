package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notice is a short message about something that happened to a link.
type Notice struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Platforms []string `json:"platforms,omitempty"` // empty means every notifier
}

// Text renders the notice as a single chat message.
func (n *Notice) Text() string {
	if n.Title == "" {
		return n.Content
	}
	if n.Content == "" {
		return n.Title
	}
	return n.Title + "\n" + n.Content
}

// Notifier delivers notices to one chat platform.
type Notifier interface {
	Platform() string
	Notify(ctx context.Context, n *Notice) error
}

// Record tracks a sent notice for history.
type Record struct {
	Notice  *Notice   `json:"notice"`
	SentAt  time.Time `json:"sent_at"`
	Targets []string  `json:"targets"`
}

const defaultHistory = 100

// Broadcaster fans notices out to every registered notifier.
type Broadcaster struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	history   []Record
	limit     int
	logger    *zap.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		notifiers: make(map[string]Notifier),
		limit:     defaultHistory,
		logger:    logger,
	}
}

// Register adds a notifier, replacing any previous one for the same platform.
func (b *Broadcaster) Register(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifiers[n.Platform()] = n
	b.logger.Info("registered notifier", zap.String("platform", n.Platform()))
}

// Platforms lists the registered platforms in sorted order.
func (b *Broadcaster) Platforms() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.notifiers))
	for p := range b.notifiers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Send delivers n to its target platforms. A failing platform does not stop
// delivery to the others; all failures are returned joined.
func (b *Broadcaster) Send(ctx context.Context, n *Notice) error {
	if n.Title == "" && n.Content == "" {
		return fmt.Errorf("notice is empty")
	}

	targets := n.Platforms
	if len(targets) == 0 {
		targets = b.Platforms()
	}

	var errs []error
	var sent []string
	for _, p := range targets {
		b.mu.RLock()
		notifier, ok := b.notifiers[p]
		b.mu.RUnlock()
		if !ok {
			errs = append(errs, fmt.Errorf("no notifier for platform: %s", p))
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			b.logger.Warn("notify failed", zap.String("platform", p), zap.Error(err))
			errs = append(errs, fmt.Errorf("notify %s: %w", p, err))
			continue
		}
		sent = append(sent, p)
	}

	b.mu.Lock()
	b.history = append(b.history, Record{Notice: n, SentAt: time.Now(), Targets: sent})
	if len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
	b.mu.Unlock()

	return errors.Join(errs...)
}

// History returns up to limit of the most recent records, oldest first.
func (b *Broadcaster) History(limit int) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Record, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}
