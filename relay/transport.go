package relay

import "context"

// MessageRef addresses a message in a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is one inline button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an inline keyboard, row by row.
type Keyboard [][]Button

// SendOptions tune an outgoing message.
type SendOptions struct {
	Keyboard Keyboard
	// ReplyTo threads the message under another message of the same chat.
	ReplyTo int
	// ForceReply asks the client to open a reply to the sent message.
	ForceReply bool
}

// MediaKind enumerates the media a sender may relay.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// Media is a file already stored by Telegram.
type Media struct {
	Kind    MediaKind
	FileID  string
	Caption string
}

// Member status values reported by the roster.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// Member is a chat member as seen by the roster.
type Member struct {
	UserID int64
	Status string
}

// IsAdmin reports whether the member administers the chat.
func (m Member) IsAdmin() bool {
	return m.Status == StatusCreator || m.Status == StatusAdministrator
}

// InChat reports whether the member currently belongs to the chat.
func (m Member) InChat() bool {
	switch m.Status {
	case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted:
		return true
	}
	return false
}

// Transport is the Bot API surface the relay needs. Every call honors ctx.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) (MessageRef, error)
	SendMedia(ctx context.Context, chatID int64, media Media, opts SendOptions) (MessageRef, error)
	// CopyMessage copies a message into the chat named by to, a numeric id or an @username.
	CopyMessage(ctx context.Context, to string, from MessageRef) (MessageRef, error)
	ClearButtons(ctx context.Context, msg MessageRef) error
	ReplaceButtons(ctx context.Context, msg MessageRef, kb Keyboard) error
	// AnswerButton acknowledges a button press, optionally with a toast.
	AnswerButton(ctx context.Context, pressID, text string) error
	Administrators(ctx context.Context, chatID int64) ([]Member, error)
	MemberOf(ctx context.Context, chatID, userID int64) (Member, error)
	Restrict(ctx context.Context, chatID, userID int64) error
	Unrestrict(ctx context.Context, chatID, userID int64) error
}
