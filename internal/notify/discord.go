package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// channelSender is the slice of *discordgo.Session the notifier uses.
type channelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notices to one channel through the bot REST API. No gateway
// websocket is opened.
type Discord struct {
	session   channelSender
	channelID string
	logger    *zap.Logger
}

// NewDiscord creates a bot-token notifier for channelID.
func NewDiscord(botToken, channelID string, logger *zap.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID, logger: logger}, nil
}

func (d *Discord) Platform() string { return "discord" }

func (d *Discord) Notify(ctx context.Context, n *Notice) error {
	content := n.Content
	if n.Title != "" {
		content = fmt.Sprintf("**%s**\n%s", n.Title, n.Content)
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send to %s: %w", d.channelID, err)
	}
	d.logger.Debug("discord notice sent", zap.String("channel", d.channelID))
	return nil
}
