package room

import (
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Hub, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewHub(Options{
			Allow:             do.MustInvoke[meeting.AllowList](i),
			TimerPolicy:       do.MustInvoke[meeting.TimerPolicy](i),
			IdleTTL:           cfg.RoomIdleTTL,
			MessagesPerSecond: cfg.WSMessagesPerSecond,
			MessageBurst:      cfg.WSMessageBurst,
		}), nil
	})
}
