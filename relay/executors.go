package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/metrics"
	"github.com/m3rciful/relaybot/relay/journal"
	"github.com/m3rciful/relaybot/relay/moderation"
	"github.com/m3rciful/relaybot/relay/payload"
)

// notifyAdmins posts the rendered copy of a user message to the admin group and
// acknowledges it to the sender.
func (r *Router) notifyAdmins(ctx context.Context, ev Event) error {
	profile := r.store.Profile(ev.Actor.ID)
	text := renderNotification(r.texts, profile, ev)
	opts := SendOptions{Keyboard: notificationKeyboard(r.texts, profile, ev.MessageID)}

	var err error
	if ev.Media != nil {
		media := *ev.Media
		media.Caption = text
		_, err = r.transport.SendMedia(ctx, r.cfg.AdminGroupID, media, opts)
	} else {
		_, err = r.transport.SendText(ctx, r.cfg.AdminGroupID, text, opts)
	}
	if err != nil {
		err = transportErr("notify admins", err)
		if _, nerr := r.transport.SendText(ctx, ev.ChatID, r.texts.DeliveryFailed, SendOptions{ReplyTo: ev.MessageID}); nerr != nil {
			err = multierror.Append(err, transportErr("delivery notice", nerr))
		}
		return reported(err)
	}

	r.record(ctx, journal.Entry{
		Kind:      journal.KindNotify,
		SenderID:  ev.Actor.ID,
		MessageID: ev.MessageID,
		Detail:    ev.Text,
	})
	logger.Info(ctx, "relay", "notify.sent",
		slog.Int64("sender_id", ev.Actor.ID),
		slog.Int("message_id", ev.MessageID),
		slog.Bool("media", ev.Media != nil),
	)
	if _, err := r.transport.SendText(ctx, ev.ChatID, r.texts.Acknowledged, SendOptions{ReplyTo: ev.MessageID}); err != nil {
		logger.Warn(ctx, "relay", "ack.failed",
			slog.Int64("sender_id", ev.Actor.ID),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// forward copies the original message into the channel, then retires the
// notification buttons and confirms in the admin group.
func (r *Router) forward(ctx context.Context, ev Event, a payload.ForwardToChannel) (string, error) {
	label := r.store.Profile(a.SenderID).Label()
	note := ev.Press.Message

	_, err := r.transport.CopyMessage(ctx, r.cfg.Channel, MessageRef{ChatID: a.SenderID, MessageID: a.MessageID})
	if err != nil {
		err = transportErr("copy to channel", err)
		text := format(r.texts.ForwardFailed, "sender", label, "error", logger.SanitizeLimit(err.Error(), 200))
		if _, nerr := r.transport.SendText(ctx, r.cfg.AdminGroupID, text, SendOptions{ReplyTo: note.MessageID}); nerr != nil {
			err = multierror.Append(err, transportErr("forward notice", nerr))
		}
		return "", reported(err)
	}

	var follow *multierror.Error
	if err := r.transport.ClearButtons(ctx, note); err != nil {
		follow = multierror.Append(follow, transportErr("clear buttons", err))
	}
	done := format(r.texts.Forwarded, "sender", label)
	if _, err := r.transport.SendText(ctx, r.cfg.AdminGroupID, done, SendOptions{ReplyTo: note.MessageID}); err != nil {
		follow = multierror.Append(follow, transportErr("forward confirmation", err))
	}
	r.followUps(ctx, "forward", follow)

	r.record(ctx, journal.Entry{Kind: journal.KindForward, ActorID: ev.Actor.ID, SenderID: a.SenderID, MessageID: a.MessageID, Detail: r.cfg.Channel})
	logger.Info(ctx, "relay", "forward.done",
		slog.Int64("sender_id", a.SenderID),
		slog.Int("message_id", a.MessageID),
		slog.String("channel", r.cfg.Channel),
	)
	return done, nil
}

// ban refuses administrators, inserts the sender, optionally restricts them in the
// admin group and, for a button press, swaps the notification buttons for Unban.
func (r *Router) ban(ctx context.Context, ev Event, sender int64, note *MessageRef) (string, error) {
	label := r.store.Profile(sender).Label()
	admins, err := r.authz.Admins(ctx)
	if err != nil {
		return "", fmt.Errorf("ban %d: %w", sender, err)
	}
	if _, ok := admins[sender]; ok {
		return "", withNotice(fmt.Errorf("ban %d: target administers the admin group: %w", sender, ErrRefused),
			format(r.texts.BanRefused, "sender", label))
	}

	added := r.store.Ban(sender, ev.Actor.ID)
	metrics.SetBanned(r.store.BannedCount())

	var follow *multierror.Error
	if added && r.cfg.RestrictBannedMembers {
		if err := r.restrict(ctx, sender); err != nil {
			follow = multierror.Append(follow, err)
		}
	}
	text := format(r.texts.AlreadyBanned, "sender", label)
	if added {
		text = format(r.texts.BanDone, "sender", label)
		r.record(ctx, journal.Entry{Kind: journal.KindBan, ActorID: ev.Actor.ID, SenderID: sender, MessageID: noteMessage(note)})
		logger.Info(ctx, "relay", "ban.applied",
			slog.Int64("sender_id", sender),
			slog.Int64("actor_id", ev.Actor.ID),
		)
	}
	if note != nil {
		if err := r.transport.ReplaceButtons(ctx, *note, unbanKeyboard(r.texts, sender)); err != nil {
			follow = multierror.Append(follow, transportErr("replace buttons", err))
		}
		if _, err := r.transport.SendText(ctx, r.cfg.AdminGroupID, text, SendOptions{ReplyTo: note.MessageID}); err != nil {
			follow = multierror.Append(follow, transportErr("ban announcement", err))
		}
	}
	r.followUps(ctx, "ban", follow)
	return text, nil
}

// restrict revokes the sender's admin-group permissions when they are a member.
func (r *Router) restrict(ctx context.Context, sender int64) error {
	m, err := r.transport.MemberOf(ctx, r.cfg.AdminGroupID, sender)
	if err != nil {
		return transportErr("member lookup", err)
	}
	if !m.InChat() {
		return nil
	}
	if err := r.transport.Restrict(ctx, r.cfg.AdminGroupID, sender); err != nil {
		return transportErr("restrict", err)
	}
	r.store.MarkRestricted(sender)
	return nil
}

// unban removes the sender, restores group permissions revoked by the ban and,
// for a button press, drops the pressed button.
func (r *Router) unban(ctx context.Context, ev Event, sender int64, note *MessageRef) (string, error) {
	label := r.store.Profile(sender).Label()
	rec, ok := r.store.Unban(sender)
	if !ok {
		return "", withNotice(fmt.Errorf("unban %d: %w", sender, ErrNotFound), format(r.texts.NotBanned, "sender", label))
	}
	metrics.SetBanned(r.store.BannedCount())

	var follow *multierror.Error
	if rec.Restricted {
		if err := r.transport.Unrestrict(ctx, r.cfg.AdminGroupID, sender); err != nil {
			follow = multierror.Append(follow, transportErr("unrestrict", err))
		}
	}
	text := format(r.texts.UnbanDone, "sender", label)
	if note != nil {
		var err error
		if rest := withoutButton(ev.Press.Keyboard, ev.Press.Data); hasCallbacks(rest) {
			err = r.transport.ReplaceButtons(ctx, *note, rest)
		} else {
			err = r.transport.ClearButtons(ctx, *note)
		}
		if err != nil {
			follow = multierror.Append(follow, transportErr("update buttons", err))
		}
		if _, err := r.transport.SendText(ctx, r.cfg.AdminGroupID, text, SendOptions{ReplyTo: note.MessageID}); err != nil {
			follow = multierror.Append(follow, transportErr("unban announcement", err))
		}
	}
	r.followUps(ctx, "unban", follow)

	r.record(ctx, journal.Entry{Kind: journal.KindUnban, ActorID: ev.Actor.ID, SenderID: sender})
	logger.Info(ctx, "relay", "ban.lifted",
		slog.Int64("sender_id", sender),
		slog.Int64("actor_id", ev.Actor.ID),
		slog.Bool("restored", rec.Restricted),
	)
	return text, nil
}

// openReply arms a pending reply for the pressing admin and prompts for the text.
// The notification keeps its buttons.
func (r *Router) openReply(ctx context.Context, ev Event, target moderation.ReplyTarget) (string, error) {
	r.store.SetPendingReply(ev.Actor.ID, target)
	label := r.store.Profile(target.SenderID).Label()
	prompt := format(r.texts.ReplyPrompt, "sender", label)
	if _, err := r.transport.SendText(ctx, r.cfg.AdminGroupID, prompt, SendOptions{ReplyTo: ev.Press.Message.MessageID, ForceReply: true}); err != nil {
		return "", transportErr("reply prompt", err)
	}
	r.record(ctx, journal.Entry{Kind: journal.KindReplyOpen, ActorID: ev.Actor.ID, SenderID: target.SenderID, MessageID: target.MessageID})
	return r.texts.ReplyArmed, nil
}

// sendReply delivers an admin answer to the sender, prefixed with the admin name
// and threaded under the original message when it is known.
func (r *Router) sendReply(ctx context.Context, ev Event, target moderation.ReplyTarget, body string, media *Media) (string, error) {
	label := r.store.Profile(target.SenderID).Label()
	admin := ev.Actor.DisplayName()
	if admin == "" || ev.SenderChatID != 0 {
		admin = r.texts.AnonymousAdmin
	}
	text := format(r.texts.ReplyPrefix, "admin", admin)
	if body != "" {
		text += "\n\n" + body
	}
	opts := SendOptions{ReplyTo: target.MessageID}

	var err error
	if media != nil {
		m := *media
		m.Caption = truncate(text, maxCaptionLen)
		_, err = r.transport.SendMedia(ctx, target.SenderID, m, opts)
	} else {
		_, err = r.transport.SendText(ctx, target.SenderID, truncate(text, maxTextLen), opts)
	}
	if err != nil {
		notice := format(r.texts.ReplyFailed, "sender", label, "error", logger.SanitizeLimit(err.Error(), 200))
		return "", withNotice(transportErr("send reply", err), notice)
	}

	r.record(ctx, journal.Entry{Kind: journal.KindReply, ActorID: ev.Actor.ID, SenderID: target.SenderID, MessageID: target.MessageID, Detail: body})
	logger.Info(ctx, "relay", "reply.sent",
		slog.Int64("sender_id", target.SenderID),
		slog.Int64("actor_id", ev.Actor.ID),
		slog.Bool("threaded", target.MessageID != 0),
	)
	return format(r.texts.ReplySent, "sender", label), nil
}

// banlist posts the banned senders with one Unban button each.
func (r *Router) banlist(ctx context.Context, ev Event) (string, error) {
	recs := r.store.Banned()
	if len(recs) == 0 {
		return r.texts.BanlistEmpty, nil
	}
	text, kb := renderBanlist(r.texts, recs, r.store.Profile)
	if _, err := r.transport.SendText(ctx, ev.ChatID, text, SendOptions{Keyboard: kb, ReplyTo: ev.MessageID}); err != nil {
		return "", transportErr("banlist", err)
	}
	return "", nil
}

func (r *Router) history(ctx context.Context, sender int64) (string, error) {
	label := r.store.Profile(sender).Label()
	entries, err := r.journal.Recent(ctx, sender, r.cfg.HistoryLimit)
	if err != nil {
		return "", fmt.Errorf("history %d: %w", sender, err)
	}
	if len(entries) == 0 {
		return format(r.texts.HistoryEmpty, "sender", label), nil
	}
	return renderHistory(r.texts, label, entries), nil
}

// followUps logs secondary effects that failed after the main effect succeeded.
func (r *Router) followUps(ctx context.Context, action string, errs *multierror.Error) {
	if err := errs.ErrorOrNil(); err != nil {
		logger.Warn(ctx, "relay", "follow_up.failed",
			slog.String("action", action),
			slog.Int("errors", len(errs.Errors)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 512)),
		)
	}
}

func noteMessage(note *MessageRef) int {
	if note == nil {
		return 0
	}
	return note.MessageID
}
