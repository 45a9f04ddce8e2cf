package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Slack posts notices through an incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
	logger     *zap.Logger
}

// NewSlack creates a webhook notifier. channel may be empty to use the
// webhook's default channel.
func NewSlack(webhookURL, channel string, logger *zap.Logger) *Slack {
	return &Slack{webhookURL: webhookURL, channel: channel, logger: logger}
}

func (s *Slack) Platform() string { return "slack" }

func (s *Slack) Notify(ctx context.Context, n *Notice) error {
	text := n.Content
	if n.Title != "" {
		text = fmt.Sprintf("*%s*\n%s", n.Title, n.Content)
	}
	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    text,
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	s.logger.Debug("slack notice sent", zap.String("title", n.Title))
	return nil
}
