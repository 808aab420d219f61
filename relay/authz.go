package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
)

// Authorizer checks actors against the administrator roster of the admin group.
// The roster is fetched on every call; a demoted admin loses access immediately.
type Authorizer struct {
	transport Transport
	chatID    int64
}

// NewAuthorizer returns an Authorizer for the roster of chatID.
func NewAuthorizer(t Transport, chatID int64) *Authorizer {
	return &Authorizer{transport: t, chatID: chatID}
}

// IsAdmin reports whether actor administers the admin group. Roster failures count
// as "not admin".
func (a *Authorizer) IsAdmin(ctx context.Context, actor int64) bool {
	if actor == 0 {
		return false
	}
	admins, err := a.roster(ctx)
	if err != nil {
		logger.Warn(ctx, "relay.authz", "roster.failed",
			slog.String("status", "fail"),
			slog.Int64("actor_id", actor),
			slog.String("err", err.Error()),
		)
		return false
	}
	_, ok := admins[actor]
	return ok
}

// Admins returns the current administrator ids.
func (a *Authorizer) Admins(ctx context.Context) (map[int64]struct{}, error) {
	return a.roster(ctx)
}

func (a *Authorizer) roster(ctx context.Context) (map[int64]struct{}, error) {
	start := time.Now()
	members, err := a.transport.Administrators(ctx, a.chatID)
	if err != nil {
		return nil, transportErr("administrators", err)
	}
	out := make(map[int64]struct{}, len(members))
	for _, m := range members {
		if m.IsAdmin() {
			out[m.UserID] = struct{}{}
		}
	}
	logger.Debug(ctx, "relay.authz", "roster",
		slog.Int("admins", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}
