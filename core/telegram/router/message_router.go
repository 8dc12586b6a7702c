// Package router binds Telebot endpoints to the dialog engine.
package router

import (
	"context"
	"time"

	tg "confbot/core/telegram"
	tghelpers "confbot/core/telegram/helpers"
	"confbot/core/telegram/middleware"
	"confbot/engine"

	tele "gopkg.in/telebot.v4"
)

// Non-text update kinds the bot acknowledges in logs but never answers.
var droppedEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnAudio,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnContact,
	tele.OnLocation,
}

// outbox adapts a per-update Telebot context to the engine's output sink.
// Sends go through the async dispatcher wired into the helpers.
type outbox struct {
	c tele.Context
}

func (o outbox) SendText(_ context.Context, text string) error {
	return tghelpers.SendText(o.c, text)
}

func (o outbox) SendImage(_ context.Context, image []byte) error {
	return tghelpers.SendPhoto(o.c, image)
}

var _ engine.Sink = outbox{}

// DialogRoutes builds the handlers feeding inbound updates to the engine.
// Text goes through the full intent/scenario pipeline; every other update
// kind is dropped after a receipt log.
func DialogRoutes(eng *engine.Engine) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, "dialog", start, "", "", func() error {
			ctx := tghelpers.BuildContext(c)
			effects, err := eng.HandleText(ctx, c.Sender().ID, c.Text())
			if err != nil {
				return err
			}
			return engine.Dispatch(ctx, effects, outbox{c: c})
		})
	}

	dropHandler := func(c tele.Context) error {
		start := time.Now()
		logHandlerSummary(c, "unsupported_update", start, "skip", "ok", nil)
		return nil
	}

	routes := []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
	}
	for _, endpoint := range droppedEndpoints {
		routes = append(routes, tg.Route{
			Endpoint: endpoint,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(dropHandler)),
		})
	}
	return routes
}
