package relay

import "strings"

// Texts holds every user-visible string. Placeholders: {sender}, {admin}, {error}
// and {usage}.
type Texts struct {
	Greeting       string `yaml:"greeting"`
	Acknowledged   string `yaml:"acknowledged"`
	Banned         string `yaml:"banned"`
	DeliveryFailed string `yaml:"delivery_failed"`
	UnknownCommand string `yaml:"unknown_command"`

	Denied       string `yaml:"denied"`
	Malformed    string `yaml:"malformed"`
	Usage        string `yaml:"usage"`
	ActionFailed string `yaml:"action_failed"`

	NotificationHeader string `yaml:"notification_header"`
	Forwarded          string `yaml:"forwarded"`
	ForwardFailed      string `yaml:"forward_failed"`

	ReplyPrompt     string `yaml:"reply_prompt"`
	ReplyArmed      string `yaml:"reply_armed"`
	ReplyPrefix     string `yaml:"reply_prefix"`
	ReplySent       string `yaml:"reply_sent"`
	ReplyFailed     string `yaml:"reply_failed"`
	ReplyCancelled  string `yaml:"reply_cancelled"`
	NothingToCancel string `yaml:"nothing_to_cancel"`
	AnonymousAdmin  string `yaml:"anonymous_admin"`

	BanDone       string `yaml:"ban_done"`
	AlreadyBanned string `yaml:"already_banned"`
	BanRefused    string `yaml:"ban_refused"`
	UnbanDone     string `yaml:"unban_done"`
	NotBanned     string `yaml:"not_banned"`
	UnknownSender string `yaml:"unknown_sender"`

	BanlistEmpty  string `yaml:"banlist_empty"`
	BanlistHeader string `yaml:"banlist_header"`

	HistoryHeader   string `yaml:"history_header"`
	HistoryEmpty    string `yaml:"history_empty"`
	HistoryDisabled string `yaml:"history_disabled"`

	ButtonProfile string `yaml:"button_profile"`
	ButtonSend    string `yaml:"button_send"`
	ButtonReply   string `yaml:"button_reply"`
	ButtonBan     string `yaml:"button_ban"`
	ButtonUnban   string `yaml:"button_unban"`
}

// DefaultTexts returns the built-in English strings.
func DefaultTexts() Texts {
	return Texts{
		Greeting:       "Hi! Write your message here and the administrators will receive it.",
		Acknowledged:   "Your message has been sent to the administrators.",
		Banned:         "You have been blocked by the administrators. Your messages are not delivered.",
		DeliveryFailed: "Your message could not be delivered. Please try again later.",
		UnknownCommand: "Unknown command. Just write your message and it will be delivered to the administrators.",

		Denied:       "Only administrators of the admin group can do that.",
		Malformed:    "This button is broken or outdated.",
		Usage:        "Usage: {usage}",
		ActionFailed: "Action failed: {error}",

		NotificationHeader: "New message from {sender}",
		Forwarded:          "Message from {sender} was published in the channel.",
		ForwardFailed:      "Could not publish the message from {sender}: {error}",

		ReplyPrompt:     "Replying to {sender}. Send your answer as a reply to this message, or /cancel.",
		ReplyArmed:      "Write your reply",
		ReplyPrefix:     "Reply from {admin}:",
		ReplySent:       "Reply delivered to {sender}.",
		ReplyFailed:     "Could not deliver the reply to {sender}: {error}",
		ReplyCancelled:  "Pending reply cancelled.",
		NothingToCancel: "There is no pending reply.",
		AnonymousAdmin:  "Administrator",

		BanDone:       "{sender} is banned.",
		AlreadyBanned: "{sender} is already banned.",
		BanRefused:    "{sender} is an administrator and cannot be banned.",
		UnbanDone:     "{sender} is unbanned.",
		NotBanned:     "{sender} is not banned.",
		UnknownSender: "Unknown user {sender}.",

		BanlistEmpty:  "The ban list is empty.",
		BanlistHeader: "Banned users:",

		HistoryHeader:   "Latest actions for {sender}:",
		HistoryEmpty:    "No journal entries for {sender}.",
		HistoryDisabled: "The journal is disabled.",

		ButtonProfile: "Profile",
		ButtonSend:    "Send to channel",
		ButtonReply:   "Reply",
		ButtonBan:     "Ban",
		ButtonUnban:   "Unban",
	}
}

// withDefaults fills every empty field from DefaultTexts.
func (t Texts) withDefaults() Texts {
	d := DefaultTexts()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&t.Greeting, d.Greeting)
	fill(&t.Acknowledged, d.Acknowledged)
	fill(&t.Banned, d.Banned)
	fill(&t.DeliveryFailed, d.DeliveryFailed)
	fill(&t.UnknownCommand, d.UnknownCommand)
	fill(&t.Denied, d.Denied)
	fill(&t.Malformed, d.Malformed)
	fill(&t.Usage, d.Usage)
	fill(&t.ActionFailed, d.ActionFailed)
	fill(&t.NotificationHeader, d.NotificationHeader)
	fill(&t.Forwarded, d.Forwarded)
	fill(&t.ForwardFailed, d.ForwardFailed)
	fill(&t.ReplyPrompt, d.ReplyPrompt)
	fill(&t.ReplyArmed, d.ReplyArmed)
	fill(&t.ReplyPrefix, d.ReplyPrefix)
	fill(&t.ReplySent, d.ReplySent)
	fill(&t.ReplyFailed, d.ReplyFailed)
	fill(&t.ReplyCancelled, d.ReplyCancelled)
	fill(&t.NothingToCancel, d.NothingToCancel)
	fill(&t.AnonymousAdmin, d.AnonymousAdmin)
	fill(&t.BanDone, d.BanDone)
	fill(&t.AlreadyBanned, d.AlreadyBanned)
	fill(&t.BanRefused, d.BanRefused)
	fill(&t.UnbanDone, d.UnbanDone)
	fill(&t.NotBanned, d.NotBanned)
	fill(&t.UnknownSender, d.UnknownSender)
	fill(&t.BanlistEmpty, d.BanlistEmpty)
	fill(&t.BanlistHeader, d.BanlistHeader)
	fill(&t.HistoryHeader, d.HistoryHeader)
	fill(&t.HistoryEmpty, d.HistoryEmpty)
	fill(&t.HistoryDisabled, d.HistoryDisabled)
	fill(&t.ButtonProfile, d.ButtonProfile)
	fill(&t.ButtonSend, d.ButtonSend)
	fill(&t.ButtonReply, d.ButtonReply)
	fill(&t.ButtonBan, d.ButtonBan)
	fill(&t.ButtonUnban, d.ButtonUnban)
	return t
}

// format substitutes placeholders given as key, value pairs, e.g. "sender", "42".
func format(tpl string, kv ...string) string {
	if len(kv) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
