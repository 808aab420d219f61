package middleware

import (
	"errors"
	"sync"
	"testing"
	"time"

	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middleware touches.
type fakeContext struct {
	tele.Context
	mu    sync.Mutex
	upd   tele.Update
	store map[string]interface{}
}

func newFakeContext(upd tele.Update) *fakeContext {
	return &fakeContext{upd: upd, store: map[string]interface{}{}}
}

func (f *fakeContext) Update() tele.Update { return f.upd }

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.upd.Message != nil:
		return f.upd.Message.Sender
	case f.upd.Callback != nil:
		return f.upd.Callback.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func (f *fakeContext) Callback() *tele.Callback { return f.upd.Callback }

func (f *fakeContext) Text() string {
	if f.upd.Message != nil {
		return f.upd.Message.Text
	}
	return ""
}

func (f *fakeContext) Get(key string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

func message(id int, userID, chatID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
		Text:   text,
	}}
}

func TestLimiterPool(t *testing.T) {
	p := newLimiterPool(time.Second, 2)
	now := time.Now()
	if !p.Allow(1, now) || !p.Allow(1, now) {
		t.Fatal("burst of two must pass")
	}
	if p.Allow(1, now) {
		t.Fatal("third update within the interval must be limited")
	}
	if !p.Allow(2, now) {
		t.Fatal("other users have their own bucket")
	}
	if !p.Allow(1, now.Add(time.Second)) {
		t.Fatal("token must refill after the interval")
	}
}

func TestRateLimitMiddlewareExclusions(t *testing.T) {
	limited := 0
	passed := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Burst:     1,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	for i := 0; i < 3; i++ {
		_ = h(newFakeContext(message(i, 5, 5, "hi")))
	}
	cb := tele.Update{ID: 9, Callback: &tele.Callback{Sender: &tele.User{ID: 5}, Data: "ban_1_2"}}
	_ = h(newFakeContext(cb))

	if passed != 2 || limited != 2 {
		t.Fatalf("passed=%d limited=%d, want 2/2", passed, limited)
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Update{
		"message":      {Message: &tele.Message{}},
		"callback":     {Callback: &tele.Callback{}},
		"channel_post": {ChannelPost: &tele.Message{}},
		"other":        {},
	}
	for want, upd := range cases {
		if got := UpdateKind(upd); got != want {
			t.Fatalf("UpdateKind = %s, want %s", got, want)
		}
	}
}

func TestMessageMetricsCountsOutbound(t *testing.T) {
	c := newFakeContext(message(1, 3, 3, "hi"))
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		CountOutbound(ctx, false)
		CountOutbound(ctx, true)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d,%v", msgs, kb)
	}
}

func TestSequenceMiddlewareRunsWithJobContext(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2, Timeout: time.Second})
	var (
		mu    sync.Mutex
		order []string
		dl    bool
	)
	h := SequenceMiddleware(d)(func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		_, has := ctx.Deadline()
		mu.Lock()
		order = append(order, c.Text())
		dl = dl || has
		mu.Unlock()
		return nil
	})
	for _, text := range []string{"one", "two", "three"} {
		if err := h(newFakeContext(message(1, 42, 42, text))); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	d.Close()

	if len(order) != 3 || order[0] != "one" || order[2] != "three" {
		t.Fatalf("order = %v", order)
	}
	if !dl {
		t.Fatal("handler context must carry the job deadline")
	}

	ran := false
	late := SequenceMiddleware(d)(func(tele.Context) error { ran = true; return errors.New("inline") })
	if err := late(newFakeContext(message(2, 42, 42, "late"))); err == nil || !ran {
		t.Fatalf("closed dispatcher must run inline, ran=%v err=%v", ran, err)
	}
}
