package discord

import (
	"log/slog"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	discordpkg "github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/identity"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Notifier, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.DiscordBotToken == "" {
			slog.Info("startup: DISCORD_BOT_TOKEN is empty; minutes will not be posted to discord")
		}
		return NewClient(c.DiscordBotToken), nil
	})
	do.Provide(injector, func(i do.Injector) (identity.Provider, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.OAuthEnabled() {
			return disabledProvider{}, nil
		}
		return NewOAuthProvider(c.DiscordClientID, c.DiscordClientSecret, c.DiscordRedirectURI), nil
	})
}
