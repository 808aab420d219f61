package middleware

import (
	"context"
	"sync/atomic"

	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "outbound_counters"

type counterCtxKey struct{}

// outbound counts messages produced while handling one update.
type outbound struct {
	messages atomic.Int64
	kb       atomic.Bool
}

func (o *outbound) inc(hasKB bool) {
	o.messages.Add(1)
	if hasKB {
		o.kb.Store(true)
	}
}

// metricsContext wraps tele.Context to count sent messages and detect keyboard usage.
type metricsContext struct {
	tele.Context
	out *outbound
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.out.inc(hasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.out.inc(hasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware tracks how many messages each update produced and whether
// any carried a keyboard. Sends through the context and through CountOutbound both count.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		out := &outbound{}
		c.Set(countersKey, out)
		ctx := tghelpers.BuildContext(c)
		tghelpers.StoreContext(c, context.WithValue(ctx, counterCtxKey{}, out))
		return next(metricsContext{Context: c, out: out})
	}
}

// CountOutbound records one outbound message against the update carried by ctx.
func CountOutbound(ctx context.Context, withKeyboard bool) {
	if ctx == nil {
		return
	}
	if out, ok := ctx.Value(counterCtxKey{}).(*outbound); ok {
		out.inc(withKeyboard)
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	out, ok := c.Get(countersKey).(*outbound)
	if !ok {
		return 0, false
	}
	return int(out.messages.Load()), out.kb.Load()
}
