// Package payload encodes and decodes the callback data carried by the buttons
// of an admin notification.
//
// Wire format: "<action>_<messageId>_<senderId>" for send, ban and reply, and
// "unban_<senderId>" for unban. Every id is a positive decimal integer.
package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed reports callback data that does not decode into an Action.
var ErrMalformed = errors.New("malformed button payload")

// Action tags.
const (
	TagSend  = "send"
	TagBan   = "ban"
	TagReply = "reply"
	TagUnban = "unban"
)

const sep = "_"

// Action is one decoded button press. The concrete types are ForwardToChannel,
// Ban, OpenReply and Unban.
type Action interface {
	// Tag is the wire prefix of the action.
	Tag() string
	// Sender is the end user the action targets.
	Sender() int64
	isAction()
}

// ForwardToChannel copies the original message to the public channel.
type ForwardToChannel struct {
	MessageID int
	SenderID  int64
}

// Ban adds the sender to the banned set.
type Ban struct {
	MessageID int
	SenderID  int64
}

// OpenReply arms a pending reply to the sender for the pressing admin.
type OpenReply struct {
	MessageID int
	SenderID  int64
}

// Unban removes the sender from the banned set.
type Unban struct {
	SenderID int64
}

func (ForwardToChannel) Tag() string { return TagSend }
func (Ban) Tag() string              { return TagBan }
func (OpenReply) Tag() string        { return TagReply }
func (Unban) Tag() string            { return TagUnban }

func (a ForwardToChannel) Sender() int64 { return a.SenderID }
func (a Ban) Sender() int64              { return a.SenderID }
func (a OpenReply) Sender() int64        { return a.SenderID }
func (a Unban) Sender() int64            { return a.SenderID }

func (ForwardToChannel) isAction() {}
func (Ban) isAction()              {}
func (OpenReply) isAction()        {}
func (Unban) isAction()            {}

// Encode renders a into callback data.
func Encode(a Action) string {
	switch a := a.(type) {
	case ForwardToChannel:
		return message(TagSend, a.MessageID, a.SenderID)
	case Ban:
		return message(TagBan, a.MessageID, a.SenderID)
	case OpenReply:
		return message(TagReply, a.MessageID, a.SenderID)
	case Unban:
		return TagUnban + sep + strconv.FormatInt(a.SenderID, 10)
	}
	return ""
}

func message(tag string, messageID int, senderID int64) string {
	return tag + sep + strconv.Itoa(messageID) + sep + strconv.FormatInt(senderID, 10)
}

// Tag returns the action prefix of data without validating the rest.
func Tag(data string) string {
	tag, _, _ := strings.Cut(data, sep)
	return tag
}

// Decode parses callback data. Any deviation from the wire format, including an
// unknown tag, a wrong field count or a non-positive id, yields ErrMalformed.
func Decode(data string) (Action, error) {
	parts := strings.Split(data, sep)
	switch parts[0] {
	case TagSend, TagBan, TagReply:
		if len(parts) != 3 {
			return nil, malformed(data, "want 3 fields, got %d", len(parts))
		}
		mid, err := positive(parts[1], 31)
		if err != nil {
			return nil, malformed(data, "message id: %v", err)
		}
		sid, err := positive(parts[2], 63)
		if err != nil {
			return nil, malformed(data, "sender id: %v", err)
		}
		switch parts[0] {
		case TagSend:
			return ForwardToChannel{MessageID: int(mid), SenderID: sid}, nil
		case TagBan:
			return Ban{MessageID: int(mid), SenderID: sid}, nil
		default:
			return OpenReply{MessageID: int(mid), SenderID: sid}, nil
		}
	case TagUnban:
		if len(parts) != 2 {
			return nil, malformed(data, "want 2 fields, got %d", len(parts))
		}
		sid, err := positive(parts[1], 63)
		if err != nil {
			return nil, malformed(data, "sender id: %v", err)
		}
		return Unban{SenderID: sid}, nil
	}
	return nil, malformed(data, "unknown action %q", parts[0])
}

func positive(s string, bits int) (int64, error) {
	n, err := strconv.ParseInt(s, 10, bits+1)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

func malformed(data, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrMalformed, data, fmt.Sprintf(format, args...))
}
