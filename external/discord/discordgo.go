package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	discordpkg "github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/bwmarrin/discordgo"
)

// Client posts minutes through the bot's REST session. The gateway is never
// opened; file uploads only need the REST API.
type Client struct {
	token string

	mu      sync.Mutex
	session *discordgo.Session
}

func NewClient(token string) *Client {
	return &Client{token: strings.TrimSpace(token)}
}

func (c *Client) restSession() (*discordgo.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

func (c *Client) SendChannelMessageWithFile(ctx context.Context, msg discordpkg.FileMessage) error {
	if c.token == "" || msg.ChannelID == "" {
		return nil
	}
	s, err := c.restSession()
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files: []*discordgo.File{
			{Name: msg.Filename, ContentType: "text/plain", Reader: bytes.NewReader(msg.FileBody)},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send minutes to channel %s: %w", msg.ChannelID, err)
	}
	slog.Info("minutes posted to discord", "channel_id", msg.ChannelID, "filename", msg.Filename)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Client.CloseIdleConnections()
	}
	return nil
}

func isRESTStatus(err error, code int) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == code
}

func isRESTUnauthorized(err error) bool {
	return errors.Is(err, discordgo.ErrUnauthorized) || isRESTStatus(err, http.StatusUnauthorized)
}
