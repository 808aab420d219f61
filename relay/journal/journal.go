// Package journal keeps an append-only audit trail of relay actions. It is never
// consulted for moderation decisions.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by reads when no database is configured.
var ErrDisabled = errors.New("journal disabled")

// Entry kinds.
const (
	KindNotify    = "notify"
	KindForward   = "forward"
	KindReply     = "reply"
	KindReplyOpen = "reply_open"
	KindBan       = "ban"
	KindUnban     = "unban"
	KindRejected  = "rejected"
)

// Entry is one journal row.
type Entry struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	ActorID   int64     `db:"actor_id"`
	SenderID  int64     `db:"sender_id"`
	MessageID int       `db:"message_id"`
	Detail    string    `db:"detail"`
	At        time.Time `db:"created_at"`
}

// Journal records relay actions and lists the latest ones per sender.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, senderID int64, limit int) ([]Entry, error)
}

// Nop discards entries. Recent reports ErrDisabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Recent(context.Context, int64, int) ([]Entry, error) { return nil, ErrDisabled }
