package relay

import (
	"strings"
)

// EventKind is the payload type of an inbound event.
type EventKind int

const (
	KindOther EventKind = iota
	KindText
	KindPhoto
	KindVideo
	KindButton
)

func (k EventKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindButton:
		return "button"
	}
	return "other"
}

// Chat types as reported by Telegram.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSuperGroup = "supergroup"
	ChatChannel    = "channel"
)

// User is the actor of an event.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// FullName joins the first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// DisplayName returns the full name, else @username, else "".
func (u User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}

// Press is a button press on a bot message.
type Press struct {
	ID   string
	Data string
	// Message is the bot message carrying the button.
	Message MessageRef
	// Keyboard is the markup of Message at press time.
	Keyboard Keyboard
}

// Replied describes the message an inbound message replies to.
type Replied struct {
	MessageID int
	FromBot   bool
	Text      string
	// Payloads lists the callback data of the replied message's buttons.
	Payloads []string
}

// Event is a transport-neutral inbound update.
type Event struct {
	UpdateID int
	ChatID   int64
	ChatType string
	Actor    User
	// SenderChatID is set when the message is sent on behalf of a chat, as anonymous
	// group admins do.
	SenderChatID int64
	MessageID    int
	Kind         EventKind
	// Text is the message text or the media caption.
	Text    string
	Media   *Media
	Press   *Press
	ReplyTo *Replied
}

// IsCommand reports whether the text starts with a bot command.
func (e Event) IsCommand() bool {
	return e.Kind == KindText && strings.HasPrefix(e.Text, "/")
}

// Route is the class an event is dispatched as.
type Route int

const (
	RouteIgnore Route = iota
	RoutePrivileged
	RouteUserContent
	RouteButton
	RouteAdminMessage
	RoutePublicCommand
	RouteUnknownCommand
)

func (r Route) String() string {
	switch r {
	case RoutePrivileged:
		return "privileged"
	case RouteUserContent:
		return "user_content"
	case RouteButton:
		return "button"
	case RouteAdminMessage:
		return "admin_message"
	case RoutePublicCommand:
		return "public_command"
	case RouteUnknownCommand:
		return "unknown_command"
	}
	return "ignore"
}

// Classify maps ev to exactly one route. It is pure: whether an admin message is a
// reply or small talk, and whether the actor may act, is decided by the router.
func Classify(ev Event, adminGroupID int64) Route {
	if ev.Kind == KindButton {
		if ev.Press == nil {
			return RouteIgnore
		}
		return RouteButton
	}
	if ev.Actor.IsBot && ev.SenderChatID == 0 {
		return RouteIgnore
	}

	inAdminGroup := adminGroupID != 0 && ev.ChatID == adminGroupID
	if ev.IsCommand() {
		cmd, _ := ParseCommand(ev.Text)
		switch {
		case cmd.Privileged():
			if inAdminGroup || ev.ChatType == ChatPrivate {
				return RoutePrivileged
			}
			return RouteIgnore
		case ev.ChatType != ChatPrivate:
			return RouteIgnore
		case cmd.Name == CmdStart:
			return RoutePublicCommand
		}
		return RouteUnknownCommand
	}

	relayable := ev.Kind == KindText || ev.Kind == KindPhoto || ev.Kind == KindVideo
	switch {
	case !relayable:
		return RouteIgnore
	case inAdminGroup:
		return RouteAdminMessage
	case ev.ChatType == ChatPrivate:
		return RouteUserContent
	}
	return RouteIgnore
}
