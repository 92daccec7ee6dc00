package httpserver

import (
	"net/http"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/identity"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/room"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*http.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		router := NewRouter(
			do.MustInvoke[*session.Store](i),
			do.MustInvoke[*room.Hub](i),
			do.MustInvoke[identity.Provider](i),
		)
		return NewHTTPServer(cfg.HTTPAddr, router), nil
	})
}
