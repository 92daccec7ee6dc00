package discord

import "context"

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

// Notifier posts into Discord text channels. Implementations without a bot
// token accept and drop every message.
type Notifier interface {
	SendChannelMessageWithFile(ctx context.Context, msg FileMessage) error
}
