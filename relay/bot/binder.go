package bot

import (
	"strings"

	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

// Binder feeds telebot updates into the relay router.
type Binder struct {
	router *relay.Router
	botID  int64
}

// NewBinder returns a Binder. botID tells replies to the bot's own messages apart.
func NewBinder(router *relay.Router, botID int64) *Binder {
	return &Binder{router: router, botID: botID}
}

// Handle is a tele.HandlerFunc for every endpoint the relay serves.
func (b *Binder) Handle(c tele.Context) error {
	ev, ok := EventFromUpdate(c.Update(), b.botID)
	if !ok {
		return nil
	}
	return b.router.Dispatch(tghelpers.BuildContext(c), ev)
}

// EventFromUpdate converts a message or callback update. ok is false for anything else.
func EventFromUpdate(upd tele.Update, botID int64) (relay.Event, bool) {
	if cb := upd.Callback; cb != nil {
		return eventFromCallback(upd.ID, cb), true
	}
	m := upd.Message
	if m == nil || m.Chat == nil {
		return relay.Event{}, false
	}

	ev := relay.Event{
		UpdateID:  upd.ID,
		ChatID:    m.Chat.ID,
		ChatType:  string(m.Chat.Type),
		Actor:     user(m.Sender),
		MessageID: m.ID,
	}
	if m.SenderChat != nil {
		ev.SenderChatID = m.SenderChat.ID
	}
	switch {
	case m.Photo != nil:
		ev.Kind = relay.KindPhoto
		ev.Text = m.Caption
		ev.Media = &relay.Media{Kind: relay.MediaPhoto, FileID: m.Photo.FileID}
	case m.Video != nil:
		ev.Kind = relay.KindVideo
		ev.Text = m.Caption
		ev.Media = &relay.Media{Kind: relay.MediaVideo, FileID: m.Video.FileID}
	case m.Text != "":
		ev.Kind = relay.KindText
		ev.Text = m.Text
	default:
		ev.Kind = relay.KindOther
	}
	if rt := m.ReplyTo; rt != nil {
		text := rt.Text
		if text == "" {
			text = rt.Caption
		}
		ev.ReplyTo = &relay.Replied{
			MessageID: rt.ID,
			FromBot:   botID != 0 && rt.Sender != nil && rt.Sender.ID == botID,
			Text:      text,
			Payloads:  keyboard.CallbackData(rt.ReplyMarkup),
		}
	}
	return ev, true
}

func eventFromCallback(updateID int, cb *tele.Callback) relay.Event {
	ev := relay.Event{
		UpdateID: updateID,
		Kind:     relay.KindButton,
		Actor:    user(cb.Sender),
		Press:    &relay.Press{ID: cb.ID, Data: strings.TrimSpace(cb.Data)},
	}
	if msg := cb.Message; msg != nil {
		ev.MessageID = msg.ID
		if msg.Chat != nil {
			ev.ChatID = msg.Chat.ID
			ev.ChatType = string(msg.Chat.Type)
		}
		ev.Press.Message = relay.MessageRef{ChatID: ev.ChatID, MessageID: msg.ID}
		ev.Press.Keyboard = fromMarkup(msg.ReplyMarkup)
	}
	return ev
}

func user(u *tele.User) relay.User {
	if u == nil {
		return relay.User{}
	}
	return relay.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}

func fromMarkup(m *tele.ReplyMarkup) relay.Keyboard {
	if m == nil {
		return nil
	}
	kb := make(relay.Keyboard, 0, len(m.InlineKeyboard))
	for _, row := range m.InlineKeyboard {
		r := make([]relay.Button, 0, len(row))
		for _, b := range row {
			r = append(r, relay.Button{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		kb = append(kb, r)
	}
	return kb
}
