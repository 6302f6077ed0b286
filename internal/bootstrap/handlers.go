package bootstrap

import (
	"github.com/go-socialgate/socialgate/internal/handlers"
)

// handlerSet holds the HTTP handlers
type handlerSet struct {
	connect *handlers.ConnectHandler
	signIn  *handlers.SignInHandler
}

func buildHandlers(app *Application) handlerSet {
	return handlerSet{
		connect: handlers.NewConnectHandler(
			app.Registry,
			app.Connections,
			app.StateCache,
			app.Config.CacheTTL,
			app.Config.BaseURL,
			app.Recorder,
		),
		signIn: handlers.NewSignInHandler(
			app.Registry,
			app.Connections,
			app.StateCache,
			app.Config.CacheTTL,
			app.Config.BaseURL,
			app.Recorder,
		),
	}
}
