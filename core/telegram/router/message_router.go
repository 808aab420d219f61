package router

import (
	"time"

	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions controls handling of updates that are not registered commands.
type MessageOptions struct {
	// Media receives photos and videos.
	Media tele.HandlerFunc
	// UnknownText runs when neither a command nor the registry text fallback matches.
	UnknownText tele.HandlerFunc
}

// MessageRoutes builds handlers for plain text, photos and videos.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, func() error {
					return fb(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Media == nil {
			logHandlerSummary(c, "media", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "media", start, func() error {
			return opts.Media(c)
		})
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.RecoverMiddleware(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: middleware.RecoverMiddleware(mediaHandler)},
		{Endpoint: tele.OnVideo, Handler: middleware.RecoverMiddleware(mediaHandler)},
	}
}
