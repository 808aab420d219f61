package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb      *tele.Callback
		key     string
		payload string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "ban_42_1001"}, "ban", "42_1001"},
		{&tele.Callback{Data: "unban_1001"}, "unban", "1001"},
		{&tele.Callback{Data: "noseparator"}, "noseparator", ""},
		{&tele.Callback{Data: "\fmenu|open"}, "menu", "open"},
		{&tele.Callback{Unique: "menu", Data: "open"}, "menu", "open"},
	}
	for _, tc := range cases {
		key, payload := ParseCallbackData(tc.cb)
		if key != tc.key || payload != tc.payload {
			t.Fatalf("ParseCallbackData(%+v) = %q,%q want %q,%q", tc.cb, key, payload, tc.key, tc.payload)
		}
	}
}
