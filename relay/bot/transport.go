// Package bot adapts the relay to telebot: it implements relay.Transport over a
// *tele.Bot and turns telebot updates into relay events.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
	"github.com/m3rciful/relaybot/relay"

	tele "gopkg.in/telebot.v4"
)

// API is the subset of *tele.Bot the transport calls.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Copy(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
	AdminsOf(chat *tele.Chat) ([]tele.ChatMember, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
	Restrict(chat *tele.Chat, member *tele.ChatMember) error
}

// recipient addresses a chat by numeric id or @username.
type recipient string

func (r recipient) Recipient() string { return string(r) }

// Transport implements relay.Transport. telebot calls do not take a context, so
// every call checks ctx first and a done context fails fast.
type Transport struct {
	api API
}

var _ relay.Transport = (*Transport)(nil)

// NewTransport wraps api, normally a *tele.Bot.
func NewTransport(api API) *Transport {
	return &Transport{api: api}
}

func (t *Transport) call(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	start := time.Now()
	err := fn()
	if err != nil {
		logger.Debug(ctx, "tg", "api.fail",
			slog.String("op", op),
			slog.String("err", tgsender.SanitizeError(err)),
			slog.String("error_kind", tgsender.ClassifyError(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func sendOptions(opts relay.SendOptions) *tele.SendOptions {
	out := &tele.SendOptions{DisableWebPagePreview: true}
	if opts.ReplyTo != 0 {
		out.ReplyTo = &tele.Message{ID: opts.ReplyTo}
		out.AllowWithoutReply = true
	}
	switch {
	case opts.ForceReply:
		out.ReplyMarkup = keyboard.ForceReply()
	case len(opts.Keyboard) > 0:
		out.ReplyMarkup = markup(opts.Keyboard)
	}
	return out
}

func markup(kb relay.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func ref(m *tele.Message) relay.MessageRef {
	if m == nil {
		return relay.MessageRef{}
	}
	out := relay.MessageRef{MessageID: m.ID}
	if m.Chat != nil {
		out.ChatID = m.Chat.ID
	}
	return out
}

func stored(r relay.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(r.MessageID), ChatID: r.ChatID}
}

// SendText sends text to chatID.
func (t *Transport) SendText(ctx context.Context, chatID int64, text string, opts relay.SendOptions) (relay.MessageRef, error) {
	var msg *tele.Message
	err := t.call(ctx, "send.text", func() (err error) {
		msg, err = t.api.Send(tele.ChatID(chatID), text, sendOptions(opts))
		return err
	})
	if err != nil {
		return relay.MessageRef{}, err
	}
	middleware.CountOutbound(ctx, len(opts.Keyboard) > 0)
	return ref(msg), nil
}

// SendMedia sends a stored photo or video with its caption.
func (t *Transport) SendMedia(ctx context.Context, chatID int64, media relay.Media, opts relay.SendOptions) (relay.MessageRef, error) {
	var what interface{}
	switch media.Kind {
	case relay.MediaPhoto:
		what = &tele.Photo{File: tele.File{FileID: media.FileID}, Caption: media.Caption}
	case relay.MediaVideo:
		what = &tele.Video{File: tele.File{FileID: media.FileID}, Caption: media.Caption}
	default:
		return relay.MessageRef{}, fmt.Errorf("send.media: unsupported kind %q", media.Kind)
	}
	var msg *tele.Message
	err := t.call(ctx, "send.media", func() (err error) {
		msg, err = t.api.Send(tele.ChatID(chatID), what, sendOptions(opts))
		return err
	})
	if err != nil {
		return relay.MessageRef{}, err
	}
	middleware.CountOutbound(ctx, len(opts.Keyboard) > 0)
	return ref(msg), nil
}

// CopyMessage copies from into the chat named by to, keeping media and caption.
func (t *Transport) CopyMessage(ctx context.Context, to string, from relay.MessageRef) (relay.MessageRef, error) {
	var msg *tele.Message
	err := t.call(ctx, "copy", func() (err error) {
		msg, err = t.api.Copy(recipient(to), stored(from))
		return err
	})
	if err != nil {
		return relay.MessageRef{}, err
	}
	middleware.CountOutbound(ctx, false)
	return ref(msg), nil
}

// ClearButtons removes the inline keyboard of msg.
func (t *Transport) ClearButtons(ctx context.Context, msg relay.MessageRef) error {
	return t.call(ctx, "buttons.clear", func() error {
		_, err := t.api.EditReplyMarkup(stored(msg), nil)
		return err
	})
}

// ReplaceButtons swaps the inline keyboard of msg for kb.
func (t *Transport) ReplaceButtons(ctx context.Context, msg relay.MessageRef, kb relay.Keyboard) error {
	return t.call(ctx, "buttons.replace", func() error {
		_, err := t.api.EditReplyMarkup(stored(msg), markup(kb))
		return err
	})
}

// AnswerButton answers a callback query, with a toast when text is set.
func (t *Transport) AnswerButton(ctx context.Context, pressID, text string) error {
	return t.call(ctx, "callback.answer", func() error {
		return t.api.Respond(&tele.Callback{ID: pressID}, &tele.CallbackResponse{Text: text})
	})
}

// Administrators lists the administrators of chatID.
func (t *Transport) Administrators(ctx context.Context, chatID int64) ([]relay.Member, error) {
	var members []tele.ChatMember
	err := t.call(ctx, "admins", func() (err error) {
		members, err = t.api.AdminsOf(&tele.Chat{ID: chatID})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]relay.Member, 0, len(members))
	for _, m := range members {
		out = append(out, member(&m))
	}
	return out, nil
}

// MemberOf returns the membership of userID in chatID.
func (t *Transport) MemberOf(ctx context.Context, chatID, userID int64) (relay.Member, error) {
	var m *tele.ChatMember
	err := t.call(ctx, "member", func() (err error) {
		m, err = t.api.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
		return err
	})
	if err != nil {
		return relay.Member{}, err
	}
	out := member(m)
	if out.UserID == 0 {
		out.UserID = userID
	}
	return out, nil
}

// Restrict revokes every permission of userID in chatID indefinitely.
func (t *Transport) Restrict(ctx context.Context, chatID, userID int64) error {
	return t.call(ctx, "restrict", func() error {
		return t.api.Restrict(&tele.Chat{ID: chatID}, &tele.ChatMember{
			User:            &tele.User{ID: userID},
			Rights:          tele.NoRights(),
			RestrictedUntil: tele.Forever(),
		})
	})
}

// Unrestrict restores the default permissions of userID in chatID.
func (t *Transport) Unrestrict(ctx context.Context, chatID, userID int64) error {
	return t.call(ctx, "unrestrict", func() error {
		return t.api.Restrict(&tele.Chat{ID: chatID}, &tele.ChatMember{
			User:   &tele.User{ID: userID},
			Rights: tele.NoRestrictions(),
		})
	})
}

func member(m *tele.ChatMember) relay.Member {
	if m == nil {
		return relay.Member{}
	}
	out := relay.Member{Status: string(m.Role)}
	if m.User != nil {
		out.UserID = m.User.ID
	}
	return out
}
