package storage

import (
	"context"
	"errors"

	"reelpost/internal/services"
	"reelpost/internal/telegram"
)

// FileIDPrefix prefixes references returned by the telegram backend.
const FileIDPrefix = "tg://file_id/"

// DocumentSender is the slice of the Bot API client the telegram backend uses.
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID, path, fileName, caption string) (telegram.Message, error)
}

// TelegramBackend uploads variants to a private dump channel.
type TelegramBackend struct {
	sender DocumentSender
	chatID string
}

// NewTelegramBackend returns a backend posting documents to chatID.
func NewTelegramBackend(sender DocumentSender, chatID string) *TelegramBackend {
	return &TelegramBackend{sender: sender, chatID: chatID}
}

func (b *TelegramBackend) Name() string { return "telegram" }

// Store uploads path and returns tg://file_id/<id>.
func (b *TelegramBackend) Store(ctx context.Context, path, name string) (string, error) {
	msg, err := b.sender.SendDocument(ctx, b.chatID, path, name, "")
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "telegram upload", name, err)
	}
	fileID := msg.FileID()
	if fileID == "" {
		return "", services.Wrap(services.ErrStorage, "storage", "telegram upload", name,
			errors.New("response carried no file id"))
	}
	return FileIDPrefix + fileID, nil
}
