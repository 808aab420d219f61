package relay

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/relaybot/relay/journal"
	"github.com/m3rciful/relaybot/relay/moderation"
	"github.com/m3rciful/relaybot/relay/payload"
)

// Bot API length limits, in characters.
const (
	maxTextLen    = 4096
	maxCaptionLen = 1024
	maxBanButtons = 50
)

// The hint occupies a line of its own, right under the header.
var replyHintRe = regexp.MustCompile(`(?m)^/reply_(\d+)$`)

func replyHint(senderID int64) string {
	return CmdReply + "_" + strconv.FormatInt(senderID, 10)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// renderNotification builds the admin-group copy of an inbound message. The
// /reply_<id> hint keeps thread replies working after the buttons are gone.
func renderNotification(t Texts, p moderation.SenderProfile, ev Event) string {
	label := strings.Join(strings.Fields(p.Label()), " ")
	head := format(t.NotificationHeader, "sender", label) + "\n" + replyHint(p.ID)
	limit := maxTextLen
	if ev.Media != nil {
		limit = maxCaptionLen
	}
	if strings.TrimSpace(ev.Text) == "" {
		return truncate(head, limit)
	}
	return truncate(head+"\n\n"+ev.Text, limit)
}

func notificationKeyboard(t Texts, p moderation.SenderProfile, messageID int) Keyboard {
	var top []Button
	if p.Username != "" {
		top = append(top, Button{Text: t.ButtonProfile, URL: "https://t.me/" + p.Username})
	}
	top = append(top, Button{Text: t.ButtonSend, Data: payload.Encode(payload.ForwardToChannel{MessageID: messageID, SenderID: p.ID})})
	return Keyboard{
		top,
		{
			{Text: t.ButtonReply, Data: payload.Encode(payload.OpenReply{MessageID: messageID, SenderID: p.ID})},
			{Text: t.ButtonBan, Data: payload.Encode(payload.Ban{MessageID: messageID, SenderID: p.ID})},
		},
	}
}

func unbanKeyboard(t Texts, senderID int64) Keyboard {
	return Keyboard{{{Text: t.ButtonUnban, Data: payload.Encode(payload.Unban{SenderID: senderID})}}}
}

// withoutButton drops buttons carrying data and the rows left empty.
func withoutButton(kb Keyboard, data string) Keyboard {
	var out Keyboard
	for _, row := range kb {
		var kept []Button
		for _, b := range row {
			if b.Data == "" || b.Data != data {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

func hasCallbacks(kb Keyboard) bool {
	for _, row := range kb {
		for _, b := range row {
			if b.Data != "" {
				return true
			}
		}
	}
	return false
}

// threadTarget finds the sender behind a bot message the admin replied to: first
// from its button payloads, then from the /reply_<id> hint line in its text. An
// unban button only counts when the hint line names the same sender, since the
// banlist carries one per banned user.
func threadTarget(ev Event) (moderation.ReplyTarget, bool) {
	rt := ev.ReplyTo
	if rt == nil || !rt.FromBot {
		return moderation.ReplyTarget{}, false
	}
	hinted, hasHint := hintedSender(rt.Text)
	for _, data := range rt.Payloads {
		act, err := payload.Decode(data)
		if err != nil {
			continue
		}
		switch a := act.(type) {
		case payload.ForwardToChannel:
			return moderation.ReplyTarget{SenderID: a.SenderID, MessageID: a.MessageID}, true
		case payload.Ban:
			return moderation.ReplyTarget{SenderID: a.SenderID, MessageID: a.MessageID}, true
		case payload.OpenReply:
			return moderation.ReplyTarget{SenderID: a.SenderID, MessageID: a.MessageID}, true
		case payload.Unban:
			if hasHint && a.SenderID == hinted {
				return moderation.ReplyTarget{SenderID: a.SenderID}, true
			}
		}
	}
	if hasHint {
		return moderation.ReplyTarget{SenderID: hinted}, true
	}
	return moderation.ReplyTarget{}, false
}

func hintedSender(text string) (int64, bool) {
	m := replyHintRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func renderBanlist(t Texts, recs []moderation.BanRecord, profile func(int64) moderation.SenderProfile) (string, Keyboard) {
	var b strings.Builder
	b.WriteString(t.BanlistHeader)
	var kb Keyboard
	for _, rec := range recs {
		label := profile(rec.SenderID).Label()
		fmt.Fprintf(&b, "\n• %s, since %s", label, rec.BannedAt.UTC().Format("2006-01-02 15:04"))
		if len(kb) < maxBanButtons {
			kb = append(kb, []Button{{
				Text: t.ButtonUnban + " " + truncate(label, 40),
				Data: payload.Encode(payload.Unban{SenderID: rec.SenderID}),
			}})
		}
	}
	return truncate(b.String(), maxTextLen), kb
}

func renderHistory(t Texts, label string, entries []journal.Entry) string {
	var b strings.Builder
	b.WriteString(format(t.HistoryHeader, "sender", label))
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s %s", e.At.UTC().Format(time.DateTime), e.Kind)
		if e.ActorID != 0 {
			fmt.Fprintf(&b, " by %d", e.ActorID)
		}
		if e.MessageID != 0 {
			fmt.Fprintf(&b, " msg %d", e.MessageID)
		}
		if d := strings.TrimSpace(e.Detail); d != "" {
			b.WriteString(": " + truncate(strings.ReplaceAll(d, "\n", " "), 80))
		}
	}
	return truncate(b.String(), maxTextLen)
}
