package session

import (
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		dn := do.MustInvoke[discord.Notifier](i)
		return NewStore(repo, wh, dn, Options{
			Allow:            do.MustInvoke[meeting.AllowList](i),
			TimerPolicy:      do.MustInvoke[meeting.TimerPolicy](i),
			LongPollMaxWait:  cfg.LongPollMaxWait,
			Location:         cfg.Location(),
			Timezone:         cfg.MinutesTimezone,
			MinutesChannelID: cfg.DiscordMinutesChannel,
		}), nil
	})
}
