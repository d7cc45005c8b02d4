package publish

import (
	"context"

	"reelpost/internal/services"
	"reelpost/internal/telegram"
)

// MessageSender is the slice of the Bot API client used for channel posts.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string, buttons []telegram.Button) (telegram.Message, error)
}

// TelegramPublisher posts the caption with one inline URL button per variant.
type TelegramPublisher struct {
	sender     MessageSender
	chatID     string
	maxButtons int
}

// NewTelegramPublisher posts to chatID with at most maxButtons buttons.
func NewTelegramPublisher(sender MessageSender, chatID string, maxButtons int) *TelegramPublisher {
	return &TelegramPublisher{sender: sender, chatID: chatID, maxButtons: maxButtons}
}

func (p *TelegramPublisher) Name() string { return "telegram" }

// Publish returns the posted message link as the episode reference.
func (p *TelegramPublisher) Publish(ctx context.Context, post Post) (string, error) {
	if len(post.Links) == 0 {
		return "", services.Wrap(services.ErrPublish, "publish", "telegram post", post.Caption(), errNoLinks)
	}
	links := post.Links
	if p.maxButtons > 0 && len(links) > p.maxButtons {
		links = links[:p.maxButtons]
	}
	buttons := make([]telegram.Button, 0, len(links))
	for _, link := range links {
		buttons = append(buttons, telegram.Button{Text: link.Label, URL: link.URL})
	}
	chatID := p.chatID
	if post.Channel != "" {
		chatID = post.Channel
	}
	msg, err := p.sender.SendMessage(ctx, chatID, post.Caption(), buttons)
	if err != nil {
		return "", services.Wrap(services.ErrPublish, "publish", "telegram post", post.Caption(), err)
	}
	return msg.Link(), nil
}
