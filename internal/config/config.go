package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	HostAllowAll           bool
	HostAllowlist          []string
	TimerExtendCapMultiple float64
	TimerExtendMinCapSec   int
	LongPollMaxWait        time.Duration
	RoomIdleTTL            time.Duration
	WSMessagesPerSecond    float64
	WSMessageBurst         int
	MinutesTimezone        string
	MinutesWebhookURL      string
	DiscordClientID        string
	DiscordClientSecret    string
	DiscordRedirectURI     string
	DiscordBotToken        string
	DiscordMinutesChannel  string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.TimerExtendCapMultiple < 1 {
		return fmt.Errorf("TIMER_EXTEND_CAP_MULTIPLE must be at least 1, got %v", c.TimerExtendCapMultiple)
	}
	if c.TimerExtendMinCapSec < 0 {
		return fmt.Errorf("TIMER_EXTEND_MIN_CAP_SEC must not be negative, got %d", c.TimerExtendMinCapSec)
	}
	if c.LongPollMaxWait < 0 {
		return fmt.Errorf("LONG_POLL_MAX_WAIT must not be negative, got %s", c.LongPollMaxWait)
	}
	if c.RoomIdleTTL <= 0 {
		return fmt.Errorf("ROOM_IDLE_TTL must be positive, got %s", c.RoomIdleTTL)
	}
	if c.WSMessagesPerSecond <= 0 || c.WSMessageBurst <= 0 {
		return fmt.Errorf("WS_MESSAGES_PER_SECOND and WS_MESSAGE_BURST must be positive")
	}
	if c.DiscordClientID != "" && c.DiscordClientSecret == "" {
		return fmt.Errorf("DISCORD_CLIENT_SECRET is required when DISCORD_CLIENT_ID is set")
	}
	if c.DiscordBotToken != "" && c.DiscordMinutesChannel == "" {
		return fmt.Errorf("DISCORD_MINUTES_CHANNEL_ID is required when DISCORD_BOT_TOKEN is set")
	}
	if _, err := time.LoadLocation(c.MinutesTimezone); err != nil {
		return fmt.Errorf("MINUTES_TIMEZONE is invalid: %w", err)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "MINUTES_TIMEZONE", value: c.MinutesTimezone},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the minutes timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MinutesTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != ""
}
