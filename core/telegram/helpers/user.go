package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// ChatKind maps a chat to the coarse label used in logs and metrics.
func ChatKind(chat *tele.Chat) string {
	if chat == nil {
		return "none"
	}
	switch chat.Type {
	case tele.ChatPrivate:
		return "private"
	case tele.ChatGroup, tele.ChatSuperGroup:
		return "group"
	case tele.ChatChannel, tele.ChatChannelPrivate:
		return "channel"
	}
	return "other"
}
