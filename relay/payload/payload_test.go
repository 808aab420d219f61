package payload

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := map[string]Action{
		"ban_42_1001":            Ban{MessageID: 42, SenderID: 1001},
		"send_7_555":             ForwardToChannel{MessageID: 7, SenderID: 555},
		"reply_3_99":             OpenReply{MessageID: 3, SenderID: 99},
		"unban_1001":             Unban{SenderID: 1001},
		"ban_1_9007199254740993": Ban{MessageID: 1, SenderID: 9007199254740993},
	}
	for data, want := range cases {
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%q): %v", data, err)
		}
		if got != want {
			t.Fatalf("Decode(%q) = %#v, want %#v", data, got, want)
		}
		if Encode(got) != data {
			t.Fatalf("Encode(%#v) = %q, want %q", got, Encode(got), data)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"ban_abc",
		"ban_42",
		"ban_42_1001_7",
		"ban_0_1001",
		"ban_42_-5",
		"send_x_1",
		"unban",
		"unban_1_2",
		"unban_-1",
		"mute_1_2",
		"ban_99999999999_1",
	} {
		if a, err := Decode(data); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%q) = %#v, %v; want ErrMalformed", data, a, err)
		}
	}
}

func TestTag(t *testing.T) {
	if Tag("ban_42_1001") != TagBan || Tag("unban_1") != TagUnban || Tag("x") != "x" {
		t.Fatal("unexpected tag extraction")
	}
	if (Ban{}).Tag() != TagBan || (Unban{SenderID: 5}).Sender() != 5 {
		t.Fatal("unexpected accessor values")
	}
}
