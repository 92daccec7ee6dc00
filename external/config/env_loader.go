package config

import (
	"fmt"
	"time"

	internalconfig "github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	Env                    string        `env:"ENV" envDefault:"production"`
	HTTPAddr               string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	HostAllowAll           bool          `env:"HOST_ALLOW_ALL" envDefault:"false"`
	HostAllowlist          []string      `env:"HOST_ALLOWLIST" envSeparator:","`
	TimerExtendCapMultiple float64       `env:"TIMER_EXTEND_CAP_MULTIPLE" envDefault:"3"`
	TimerExtendMinCapSec   int           `env:"TIMER_EXTEND_MIN_CAP_SEC" envDefault:"600"`
	LongPollMaxWait        time.Duration `env:"LONG_POLL_MAX_WAIT" envDefault:"25s"`
	RoomIdleTTL            time.Duration `env:"ROOM_IDLE_TTL" envDefault:"2h"`
	WSMessagesPerSecond    float64       `env:"WS_MESSAGES_PER_SECOND" envDefault:"20"`
	WSMessageBurst         int           `env:"WS_MESSAGE_BURST" envDefault:"40"`
	MinutesTimezone        string        `env:"MINUTES_TIMEZONE" envDefault:"UTC"`
	MinutesWebhookURL      string        `env:"MINUTES_WEBHOOK_URL"`
	DiscordClientID        string        `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret    string        `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI     string        `env:"DISCORD_REDIRECT_URI"`
	DiscordBotToken        string        `env:"DISCORD_BOT_TOKEN"`
	DiscordMinutesChannel  string        `env:"DISCORD_MINUTES_CHANNEL_ID"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	return fromEnv(raw)
}

func fromEnv(raw envConfig) (*internalconfig.Config, error) {
	cfg := &internalconfig.Config{
		Env:                    raw.Env,
		HTTPAddr:               raw.HTTPAddr,
		DatabaseURL:            raw.DatabaseURL,
		HostAllowAll:           raw.HostAllowAll,
		HostAllowlist:          raw.HostAllowlist,
		TimerExtendCapMultiple: raw.TimerExtendCapMultiple,
		TimerExtendMinCapSec:   raw.TimerExtendMinCapSec,
		LongPollMaxWait:        raw.LongPollMaxWait,
		RoomIdleTTL:            raw.RoomIdleTTL,
		WSMessagesPerSecond:    raw.WSMessagesPerSecond,
		WSMessageBurst:         raw.WSMessageBurst,
		MinutesTimezone:        raw.MinutesTimezone,
		MinutesWebhookURL:      raw.MinutesWebhookURL,
		DiscordClientID:        raw.DiscordClientID,
		DiscordClientSecret:    raw.DiscordClientSecret,
		DiscordRedirectURI:     raw.DiscordRedirectURI,
		DiscordBotToken:        raw.DiscordBotToken,
		DiscordMinutesChannel:  raw.DiscordMinutesChannel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
