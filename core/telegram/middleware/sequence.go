package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// SequenceKey picks the ordering key of an update: the sender, else the chat.
func SequenceKey(c tele.Context) int64 {
	if u := c.Sender(); u != nil && u.ID != 0 {
		return u.ID
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// SequenceMiddleware hands each update to the dispatcher shard of its sender so one
// sender's updates are handled in receipt order. The handler sees the job context
// (with its deadline) through helpers.BuildContext. A closed dispatcher runs inline.
func SequenceMiddleware(d *sender.Dispatcher) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if d == nil {
			return next
		}
		return func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			key := SequenceKey(c)
			err := d.Submit(ctx, key, "update", func(jobCtx context.Context) error {
				tghelpers.StoreContext(c, jobCtx)
				return next(c)
			})
			if errors.Is(err, sender.ErrQueueClosed) {
				logger.Warn(ctx, "tg.sender", "queue.fallback",
					slog.Int64("key", key),
					slog.String("err", err.Error()),
				)
				return next(c)
			}
			return err
		}
	}
}
