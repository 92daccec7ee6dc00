package webhook

import (
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPSender(c.MinutesWebhookURL), nil
	})
}
