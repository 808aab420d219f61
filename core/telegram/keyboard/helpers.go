package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button. URL buttons open a link; the rest
// carry Data verbatim as callback data.
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// ForceReply returns a markup that opens the reply box for every member who sees
// the message.
func ForceReply() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{ForceReply: true}
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// The buttons have no Unique, so Telegram echoes Data back untouched.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				r[j] = tele.InlineButton{Text: btn.Text, URL: btn.URL}
				continue
			}
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data}
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// CallbackData lists the callback payloads carried by markup, row by row.
func CallbackData(markup *tele.ReplyMarkup) []string {
	if markup == nil {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.Data != "" {
				out = append(out, b.Data)
			}
		}
	}
	return out
}
