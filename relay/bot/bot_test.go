package bot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

const botID int64 = 4242

func TestEventFromMessage(t *testing.T) {
	upd := tele.Update{
		ID: 9,
		Message: &tele.Message{
			ID:     10,
			Chat:   &tele.Chat{ID: 555, Type: tele.ChatPrivate},
			Sender: &tele.User{ID: 555, FirstName: "Eve", Username: "eve"},
			Text:   "hello",
		},
	}
	ev, ok := EventFromUpdate(upd, botID)
	if !ok {
		t.Fatal("message must convert")
	}
	if ev.UpdateID != 9 || ev.ChatID != 555 || ev.ChatType != relay.ChatPrivate || ev.MessageID != 10 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Kind != relay.KindText || ev.Text != "hello" || ev.Actor.Username != "eve" || ev.Media != nil {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEventFromMedia(t *testing.T) {
	upd := tele.Update{Message: &tele.Message{
		ID:      11,
		Chat:    &tele.Chat{ID: 555, Type: tele.ChatPrivate},
		Sender:  &tele.User{ID: 555},
		Photo:   &tele.Photo{File: tele.File{FileID: "photo-1"}},
		Caption: "look",
	}}
	ev, _ := EventFromUpdate(upd, botID)
	if ev.Kind != relay.KindPhoto || ev.Text != "look" || ev.Media == nil || ev.Media.FileID != "photo-1" || ev.Media.Kind != relay.MediaPhoto {
		t.Fatalf("photo event = %+v", ev)
	}

	upd.Message.Photo = nil
	upd.Message.Video = &tele.Video{File: tele.File{FileID: "video-1"}}
	ev, _ = EventFromUpdate(upd, botID)
	if ev.Kind != relay.KindVideo || ev.Media.Kind != relay.MediaVideo || ev.Media.FileID != "video-1" {
		t.Fatalf("video event = %+v", ev)
	}

	upd.Message.Video = nil
	upd.Message.Caption = ""
	upd.Message.Sticker = &tele.Sticker{}
	if ev, _ = EventFromUpdate(upd, botID); ev.Kind != relay.KindOther {
		t.Fatalf("sticker kind = %v", ev.Kind)
	}
}

func TestEventFromThreadReply(t *testing.T) {
	notification := &tele.Message{
		ID:     300,
		Sender: &tele.User{ID: botID, IsBot: true},
		Text:   "New message from Eve\n/reply_555",
		ReplyMarkup: &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
			{{Text: "Profile", URL: "https://t.me/eve"}, {Text: "Send", Data: "send_10_555"}},
			{{Text: "Reply", Data: "reply_10_555"}, {Text: "Ban", Data: "ban_10_555"}},
		}},
	}
	upd := tele.Update{Message: &tele.Message{
		ID:         301,
		Chat:       &tele.Chat{ID: -100, Type: tele.ChatSuperGroup},
		Sender:     &tele.User{ID: 1087968824, IsBot: true},
		SenderChat: &tele.Chat{ID: -100},
		Text:       "answer",
		ReplyTo:    notification,
	}}
	ev, _ := EventFromUpdate(upd, botID)
	if ev.SenderChatID != -100 || ev.ReplyTo == nil || !ev.ReplyTo.FromBot || ev.ReplyTo.MessageID != 300 {
		t.Fatalf("event = %+v / %+v", ev, ev.ReplyTo)
	}
	if want := []string{"send_10_555", "reply_10_555", "ban_10_555"}; !reflect.DeepEqual(ev.ReplyTo.Payloads, want) {
		t.Fatalf("payloads = %v", ev.ReplyTo.Payloads)
	}

	notification.Sender = &tele.User{ID: 1}
	if ev, _ = EventFromUpdate(upd, botID); ev.ReplyTo.FromBot {
		t.Fatal("reply to a human must not count as a bot reply")
	}
}

func TestEventFromCallback(t *testing.T) {
	upd := tele.Update{ID: 5, Callback: &tele.Callback{
		ID:     "cb-1",
		Sender: &tele.User{ID: 7, FirstName: "Ada"},
		Data:   "ban_10_555",
		Message: &tele.Message{
			ID:   300,
			Chat: &tele.Chat{ID: -100, Type: tele.ChatSuperGroup},
			ReplyMarkup: &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
				{{Text: "Unban", Data: "unban_555"}},
			}},
		},
	}}
	ev, ok := EventFromUpdate(upd, botID)
	if !ok || ev.Kind != relay.KindButton || ev.Press == nil {
		t.Fatalf("callback event = %+v", ev)
	}
	if ev.Press.ID != "cb-1" || ev.Press.Data != "ban_10_555" || ev.Press.Message != (relay.MessageRef{ChatID: -100, MessageID: 300}) {
		t.Fatalf("press = %+v", ev.Press)
	}
	if len(ev.Press.Keyboard) != 1 || ev.Press.Keyboard[0][0].Data != "unban_555" {
		t.Fatalf("keyboard = %+v", ev.Press.Keyboard)
	}
	if ev.Actor.ID != 7 || ev.ChatID != -100 {
		t.Fatalf("actor/chat = %+v", ev)
	}
}

func TestEventFromOtherUpdates(t *testing.T) {
	if _, ok := EventFromUpdate(tele.Update{ID: 1}, botID); ok {
		t.Fatal("empty update must be skipped")
	}
	if _, ok := EventFromUpdate(tele.Update{Message: &tele.Message{ID: 1}}, botID); ok {
		t.Fatal("message without chat must be skipped")
	}
}

type apiCall struct {
	op   string
	to   string
	what interface{}
	opts *tele.SendOptions
	mk   *tele.ReplyMarkup
}

type fakeAPI struct {
	calls  []apiCall
	err    error
	admins []tele.ChatMember
	member *tele.ChatMember
	rights []tele.Rights
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var so *tele.SendOptions
	if len(opts) > 0 {
		so, _ = opts[0].(*tele.SendOptions)
	}
	f.calls = append(f.calls, apiCall{op: "send", to: to.Recipient(), what: what, opts: so})
	return &tele.Message{ID: len(f.calls), Chat: &tele.Chat{ID: -100}}, nil
}

func (f *fakeAPI) Copy(to tele.Recipient, msg tele.Editable, _ ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	id, chat := msg.MessageSig()
	f.calls = append(f.calls, apiCall{op: "copy", to: to.Recipient(), what: [2]interface{}{id, chat}})
	return &tele.Message{ID: 77}, nil
}

func (f *fakeAPI) EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error) {
	id, _ := msg.MessageSig()
	f.calls = append(f.calls, apiCall{op: "markup", to: id, mk: markup})
	return &tele.Message{}, f.err
}

func (f *fakeAPI) Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.calls = append(f.calls, apiCall{op: "respond", to: c.ID, what: resp[0].Text})
	return f.err
}

func (f *fakeAPI) AdminsOf(*tele.Chat) ([]tele.ChatMember, error) { return f.admins, f.err }

func (f *fakeAPI) ChatMemberOf(_, _ tele.Recipient) (*tele.ChatMember, error) {
	return f.member, f.err
}

func (f *fakeAPI) Restrict(_ *tele.Chat, m *tele.ChatMember) error {
	f.rights = append(f.rights, m.Rights)
	return f.err
}

func TestTransportSend(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api)
	ctx := context.Background()

	kb := relay.Keyboard{{{Text: "Ban", Data: "ban_1_2"}, {Text: "Profile", URL: "https://t.me/x"}}}
	ref, err := tr.SendText(ctx, -100, "hi", relay.SendOptions{Keyboard: kb, ReplyTo: 5})
	if err != nil || ref.MessageID != 1 || ref.ChatID != -100 {
		t.Fatalf("send = %+v, %v", ref, err)
	}
	call := api.calls[0]
	if call.to != "-100" || call.what != "hi" || call.opts.ReplyTo.ID != 5 || !call.opts.AllowWithoutReply {
		t.Fatalf("call = %+v", call)
	}
	row := call.opts.ReplyMarkup.InlineKeyboard[0]
	if row[0].Data != "ban_1_2" || row[0].Unique != "" || row[1].URL != "https://t.me/x" {
		t.Fatalf("markup = %+v", row)
	}

	if _, err := tr.SendText(ctx, 1, "prompt", relay.SendOptions{ForceReply: true}); err != nil {
		t.Fatalf("force reply: %v", err)
	}
	if mk := api.calls[1].opts.ReplyMarkup; mk == nil || !mk.ForceReply {
		t.Fatalf("force reply markup = %+v", mk)
	}

	if _, err := tr.SendMedia(ctx, 1, relay.Media{Kind: relay.MediaVideo, FileID: "v", Caption: "c"}, relay.SendOptions{}); err != nil {
		t.Fatalf("media: %v", err)
	}
	if v, ok := api.calls[2].what.(*tele.Video); !ok || v.FileID != "v" || v.Caption != "c" {
		t.Fatalf("media payload = %#v", api.calls[2].what)
	}
	if _, err := tr.SendMedia(ctx, 1, relay.Media{Kind: "audio"}, relay.SendOptions{}); err == nil {
		t.Fatal("unsupported media must fail")
	}
}

func TestTransportCopyAndButtons(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api)
	ctx := context.Background()

	if _, err := tr.CopyMessage(ctx, "@news", relay.MessageRef{ChatID: 555, MessageID: 10}); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if c := api.calls[0]; c.to != "@news" || c.what != [2]interface{}{"10", int64(555)} {
		t.Fatalf("copy call = %+v", c)
	}

	_ = tr.ClearButtons(ctx, relay.MessageRef{ChatID: -100, MessageID: 300})
	_ = tr.ReplaceButtons(ctx, relay.MessageRef{ChatID: -100, MessageID: 300}, relay.Keyboard{{{Text: "Unban", Data: "unban_555"}}})
	if c := api.calls[1]; c.op != "markup" || c.to != "300" || c.mk != nil {
		t.Fatalf("clear call = %+v", c)
	}
	if c := api.calls[2]; c.mk == nil || c.mk.InlineKeyboard[0][0].Data != "unban_555" {
		t.Fatalf("replace call = %+v", c)
	}

	_ = tr.AnswerButton(ctx, "cb-1", "done")
	if c := api.calls[3]; c.op != "respond" || c.to != "cb-1" || c.what != "done" {
		t.Fatalf("respond call = %+v", c)
	}
}

func TestTransportRoster(t *testing.T) {
	api := &fakeAPI{
		admins: []tele.ChatMember{
			{User: &tele.User{ID: 1}, Role: tele.Creator},
			{User: &tele.User{ID: 2}, Role: tele.Administrator},
		},
		member: &tele.ChatMember{Role: tele.Member},
	}
	tr := NewTransport(api)
	ctx := context.Background()

	admins, err := tr.Administrators(ctx, -100)
	if err != nil || len(admins) != 2 || !admins[0].IsAdmin() || admins[1].UserID != 2 {
		t.Fatalf("admins = %+v, %v", admins, err)
	}
	m, err := tr.MemberOf(ctx, -100, 555)
	if err != nil || m.UserID != 555 || !m.InChat() || m.IsAdmin() {
		t.Fatalf("member = %+v, %v", m, err)
	}

	if err := tr.Restrict(ctx, -100, 555); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if err := tr.Unrestrict(ctx, -100, 555); err != nil {
		t.Fatalf("unrestrict: %v", err)
	}
	if len(api.rights) != 2 || api.rights[0].CanSendMessages || !api.rights[1].CanSendMessages {
		t.Fatalf("rights = %+v", api.rights)
	}
}

func TestTransportErrors(t *testing.T) {
	api := &fakeAPI{err: errors.New("telegram: Forbidden (403)")}
	tr := NewTransport(api)

	if _, err := tr.SendText(context.Background(), 1, "x", relay.SendOptions{}); err == nil || !errors.Is(err, api.err) {
		t.Fatalf("send error = %v", err)
	}
	if _, err := tr.Administrators(context.Background(), -100); !errors.Is(err, api.err) {
		t.Fatalf("admins error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api.err = nil
	if _, err := tr.SendText(ctx, 1, "x", relay.SendOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled ctx = %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("no call may reach the API after cancel, got %d", len(api.calls))
	}
}
