package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator splits the routing key from the rest of a raw callback payload.
const Separator = "_"

// ParseCallbackData splits raw callback data into key and remainder.
// Telebot's own "\f<unique>|<payload>" encoding is honoured as well, so buttons
// built with a Unique keep routing.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	if strings.HasPrefix(cb.Data, "\f") {
		key, payload, _ := strings.Cut(cb.Data[1:], "|")
		return key, payload
	}
	key, rest, _ := strings.Cut(strings.TrimSpace(cb.Data), Separator)
	return key, rest
}

// CallbackKey returns the routing key of the current callback, or "".
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackData returns the complete raw payload of the current callback.
func CallbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique + "|" + cb.Data
	}
	return strings.TrimSpace(cb.Data)
}
