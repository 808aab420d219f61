package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// Answer acknowledges the current button press, optionally with a toast.
// It is a no-op for updates that are not callbacks.
func Answer(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	resp := &tele.CallbackResponse{}
	if text != "" {
		resp.Text = text
	}
	return c.Respond(resp)
}
