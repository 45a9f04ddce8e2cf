package notify

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/events"
)

// Sender is implemented by Broadcaster.
type Sender interface {
	Send(ctx context.Context, n *Notice) error
}

// Relay turns link events into notices.
type Relay struct {
	sender          Sender
	notifyDismissed bool
	logger          *zap.Logger
}

// NewRelay creates a relay. Dismissals are only announced when
// notifyDismissed is set.
func NewRelay(sender Sender, notifyDismissed bool, logger *zap.Logger) *Relay {
	return &Relay{sender: sender, notifyDismissed: notifyDismissed, logger: logger}
}

// Run forwards events until ctx is cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context, sub events.Subscriber) {
	for ev := range sub.Subscribe(ctx) {
		n := r.NoticeFor(ev)
		if n == nil {
			continue
		}
		if err := r.sender.Send(ctx, n); err != nil {
			r.logger.Warn("relay notice failed",
				zap.String("event", ev.ID), zap.Error(err))
		}
	}
}

// NoticeFor builds the notice for an event, or nil when the event is not
// announced.
func (r *Relay) NoticeFor(ev *events.Event) *Notice {
	switch ev.Type {
	case events.LinkAccepted:
		n := &Notice{
			Title: fmt.Sprintf("Linked %s to %s",
				label(ev.SourceName, ev.Link.SourceID), label(ev.TargetName, ev.Link.TargetID)),
			Content: fmt.Sprintf("%s link accepted at %d%% confidence",
				ev.Kind, int(math.Round(ev.Confidence*100))),
		}
		if ev.Reason != "" {
			n.Content += ": " + ev.Reason
		}
		return n
	case events.SuggestionDismissed:
		if !r.notifyDismissed {
			return nil
		}
		return &Notice{
			Title:   "Suggestion dismissed",
			Content: ev.SuggestionID,
		}
	}
	return nil
}

func label(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
