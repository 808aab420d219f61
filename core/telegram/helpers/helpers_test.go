package helpers

import (
	"testing"

	"github.com/m3rciful/relaybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func TestChatKind(t *testing.T) {
	if got := ChatKind(&tele.Chat{Type: tele.ChatSuperGroup}); got != "group" {
		t.Fatalf("supergroup -> %s", got)
	}
	if got := ChatKind(&tele.Chat{Type: tele.ChatPrivate}); got != "private" {
		t.Fatalf("private -> %s", got)
	}
	if got := ChatKind(nil); got != "none" {
		t.Fatalf("nil -> %s", got)
	}
}

type storeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]interface{}
	resp  []*tele.CallbackResponse
}

func (s *storeContext) Update() tele.Update        { return s.upd }
func (s *storeContext) Callback() *tele.Callback   { return s.upd.Callback }
func (s *storeContext) Get(key string) interface{} { return s.store[key] }
func (s *storeContext) Set(key string, v interface{}) {
	s.store[key] = v
}

func (s *storeContext) Sender() *tele.User {
	if s.upd.Message != nil {
		return s.upd.Message.Sender
	}
	return nil
}

func (s *storeContext) Chat() *tele.Chat {
	if s.upd.Message != nil {
		return s.upd.Message.Chat
	}
	return nil
}

func (s *storeContext) Respond(resp ...*tele.CallbackResponse) error {
	s.resp = append(s.resp, resp...)
	return nil
}

func TestBuildContextCarriesUpdateMeta(t *testing.T) {
	c := &storeContext{
		upd: tele.Update{ID: 42, Message: &tele.Message{
			Sender: &tele.User{ID: 555},
			Chat:   &tele.Chat{ID: 555, Type: tele.ChatPrivate},
		}},
		store: map[string]interface{}{},
	}
	if _, ok := ContextFrom(c); ok {
		t.Fatal("nothing stored yet")
	}
	ctx := BuildContext(c)
	if logger.RIDFrom(ctx) != "42:555:555" || logger.UpdateIDFrom(ctx) != 42 || logger.UserIDFrom(ctx) != 555 || logger.ChatIDFrom(ctx) != 555 {
		t.Fatalf("rid = %q", logger.RIDFrom(ctx))
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("BuildContext must reuse the stored context")
	}
	if tagged := WithHandler(c, "start"); logger.HandlerFrom(tagged) != "start" || BuildContext(c) != tagged {
		t.Fatal("WithHandler must store the tagged context")
	}
}

func TestAnswerOnlyCallbacks(t *testing.T) {
	c := &storeContext{store: map[string]interface{}{}}
	if err := Answer(c, "x"); err != nil || len(c.resp) != 0 {
		t.Fatalf("non-callback answered: %v", c.resp)
	}
	c.upd.Callback = &tele.Callback{ID: "cb"}
	if err := Answer(c, "done"); err != nil || len(c.resp) != 1 || c.resp[0].Text != "done" {
		t.Fatalf("responses = %+v", c.resp)
	}
}
