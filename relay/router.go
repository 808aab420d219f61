// Package relay routes inbound Telegram events between end users and the admin
// group: it classifies each event, checks authorization, updates the moderation
// store and runs exactly one action executor.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/metrics"
	"github.com/m3rciful/relaybot/relay/journal"
	"github.com/m3rciful/relaybot/relay/moderation"
	"github.com/m3rciful/relaybot/relay/payload"
)

// errSkip ends handling of an event that needs no action.
var errSkip = errors.New("skip")

// Router is the relay state machine.
type Router struct {
	cfg       Config
	texts     Texts
	store     *moderation.Store
	transport Transport
	authz     *Authorizer
	journal   journal.Journal
}

// NewRouter wires the router. cfg must be normalized; a nil journal disables history.
func NewRouter(cfg Config, store *moderation.Store, t Transport, j journal.Journal) *Router {
	if j == nil {
		j = journal.Nop{}
	}
	return &Router{
		cfg:       cfg,
		texts:     cfg.Texts.withDefaults(),
		store:     store,
		transport: t,
		authz:     NewAuthorizer(t, cfg.AdminGroupID),
		journal:   j,
	}
}

// Store returns the moderation store the router owns.
func (r *Router) Store() *moderation.Store { return r.store }

// Dispatch handles one event. The returned error describes the outcome for logs;
// the actor has already been notified of it.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	start := time.Now()
	route := Classify(ev, r.cfg.AdminGroupID)

	var (
		notice string
		err    error
	)
	switch route {
	case RouteButton:
		return r.finish(ctx, ev, route, start, r.handleButton(ctx, ev))
	case RoutePrivileged:
		notice, err = r.handleCommand(ctx, ev)
	case RouteAdminMessage:
		notice, err = r.handleAdminMessage(ctx, ev)
	case RouteUserContent:
		err = r.handleUserContent(ctx, ev)
	case RoutePublicCommand:
		notice = r.texts.Greeting
	case RouteUnknownCommand:
		notice = r.texts.UnknownCommand
	default:
		err = errSkip
	}
	if !errors.Is(err, errSkip) {
		r.deliver(ctx, ev, notice, err)
	}
	return r.finish(ctx, ev, route, start, err)
}

// deliver replies to the actor's message with notice, or with the notice of err.
func (r *Router) deliver(ctx context.Context, ev Event, notice string, err error) {
	if err != nil {
		text, handled := noticeOf(err)
		if !handled {
			text = r.defaultNotice(err)
		}
		notice = text
	}
	if notice == "" {
		return
	}
	if _, serr := r.transport.SendText(ctx, ev.ChatID, notice, SendOptions{ReplyTo: ev.MessageID}); serr != nil {
		logger.Warn(ctx, "relay", "notice.failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("err", serr.Error()),
		)
	}
}

func (r *Router) defaultNotice(err error) string {
	switch {
	case errors.Is(err, ErrAuthorizationDenied):
		return r.texts.Denied
	case errors.Is(err, ErrMalformedPayload):
		return r.texts.Malformed
	case errors.Is(err, journal.ErrDisabled):
		return r.texts.HistoryDisabled
	}
	return format(r.texts.ActionFailed, "error", logger.SanitizeLimit(err.Error(), 200))
}

func (r *Router) finish(ctx context.Context, ev Event, route Route, start time.Time, err error) error {
	if errors.Is(err, errSkip) {
		metrics.IncRelayAction(route.String(), "skip")
		logger.Debug(ctx, "relay", "route",
			slog.String("route", route.String()),
			slog.String("kind", ev.Kind.String()),
			slog.String("status", "skip"),
		)
		return nil
	}
	err = classify(err)
	outcome, code := "ok", ""
	var ae *actionError
	if errors.As(err, &ae) {
		outcome, code = ae.Outcome(), ae.Code()
	}
	metrics.IncRelayAction(route.String(), outcome)

	attrs := []slog.Attr{
		slog.String("route", route.String()),
		slog.String("kind", ev.Kind.String()),
		slog.String("outcome", outcome),
		slog.Int64("actor_id", ev.Actor.ID),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", code),
		)
	}
	switch outcome {
	case "ok":
		logger.Debug(ctx, "relay", "route", attrs...)
	case "fail":
		logger.Error(ctx, "relay", "route", attrs...)
	default:
		logger.Warn(ctx, "relay", "route", attrs...)
	}
	return err
}

// isAdmin treats messages sent on behalf of the admin group itself (anonymous
// admins) as coming from an administrator.
func (r *Router) isAdmin(ctx context.Context, ev Event) bool {
	if ev.SenderChatID != 0 && ev.SenderChatID == r.cfg.AdminGroupID {
		return true
	}
	return r.authz.IsAdmin(ctx, ev.Actor.ID)
}

func denied(ev Event, what string) error {
	return fmt.Errorf("%s by %d: %w", what, ev.Actor.ID, ErrAuthorizationDenied)
}

// handleButton decodes the payload, checks the actor and answers the press exactly
// once, with the executor's result or the failure notice.
func (r *Router) handleButton(ctx context.Context, ev Event) error {
	act, err := payload.Decode(ev.Press.Data)
	var toast string
	switch {
	case err != nil:
		logger.Warn(ctx, "relay", "payload.malformed",
			slog.String("data", logger.SanitizeLimit(ev.Press.Data, 64)),
			slog.String("err", err.Error()),
		)
	case !r.isAdmin(ctx, ev):
		err = denied(ev, "button "+act.Tag())
	default:
		toast, err = r.execute(ctx, ev, act)
	}
	if err != nil {
		text, handled := noticeOf(err)
		if !handled || text == "" {
			text = r.defaultNotice(err)
		}
		toast = text
	}
	if aerr := r.transport.AnswerButton(ctx, ev.Press.ID, toast); aerr != nil {
		logger.Warn(ctx, "relay", "answer.failed", slog.String("err", aerr.Error()))
	}
	return err
}

// execute runs the executor of a decoded button press.
func (r *Router) execute(ctx context.Context, ev Event, act payload.Action) (string, error) {
	note := &ev.Press.Message
	switch a := act.(type) {
	case payload.ForwardToChannel:
		return r.forward(ctx, ev, a)
	case payload.Ban:
		return r.ban(ctx, ev, a.SenderID, note)
	case payload.OpenReply:
		return r.openReply(ctx, ev, moderation.ReplyTarget{SenderID: a.SenderID, MessageID: a.MessageID})
	case payload.Unban:
		return r.unban(ctx, ev, a.SenderID, note)
	}
	return "", fmt.Errorf("%w: unhandled action %T", ErrMalformedPayload, act)
}

func (r *Router) handleCommand(ctx context.Context, ev Event) (string, error) {
	cmd, _ := ParseCommand(ev.Text)
	if !r.isAdmin(ctx, ev) {
		return "", denied(ev, cmd.Name)
	}
	if cmd.Err != nil {
		return "", withNotice(cmd.Err, format(r.texts.Usage, "usage", cmd.Usage()))
	}
	switch cmd.Name {
	case CmdBanlist:
		return r.banlist(ctx, ev)
	case CmdUnban:
		id, err := r.resolve(cmd.Target)
		if err != nil {
			return "", err
		}
		return r.unban(ctx, ev, id, nil)
	case CmdReply:
		target := moderation.ReplyTarget{SenderID: cmd.SenderID, MessageID: r.store.Profile(cmd.SenderID).LastMessageID}
		return r.sendReply(ctx, ev, target, cmd.Text, nil)
	case CmdHistory:
		id, err := r.resolve(cmd.Target)
		if err != nil {
			return "", err
		}
		return r.history(ctx, id)
	case CmdCancel:
		if r.store.CancelPendingReply(ev.Actor.ID) {
			return r.texts.ReplyCancelled, nil
		}
		return r.texts.NothingToCancel, nil
	}
	return "", fmt.Errorf("%s: %w", cmd.Name, ErrInvalidCommand)
}

func (r *Router) resolve(identifier string) (int64, error) {
	id, ok := r.store.Resolve(identifier)
	if !ok {
		return 0, withNotice(fmt.Errorf("resolve %q: %w", identifier, ErrNotFound),
			format(r.texts.UnknownSender, "sender", identifier))
	}
	return id, nil
}

// handleAdminMessage turns an admin-group message into a reply when it answers a
// bot notification or when the admin armed a pending reply; anything else is
// ignored.
func (r *Router) handleAdminMessage(ctx context.Context, ev Event) (string, error) {
	if target, ok := threadTarget(ev); ok {
		if !r.isAdmin(ctx, ev) {
			return "", denied(ev, "thread reply")
		}
		return r.sendReply(ctx, ev, target, ev.Text, ev.Media)
	}
	if !r.store.HasPendingReply(ev.Actor.ID) {
		return "", errSkip
	}
	if !r.isAdmin(ctx, ev) {
		r.store.CancelPendingReply(ev.Actor.ID)
		return "", denied(ev, "pending reply")
	}
	target, ok := r.store.TakePendingReply(ev.Actor.ID)
	if !ok {
		return "", errSkip
	}
	return r.sendReply(ctx, ev, target, ev.Text, ev.Media)
}

func (r *Router) handleUserContent(ctx context.Context, ev Event) error {
	r.store.Remember(moderation.SenderProfile{
		ID:            ev.Actor.ID,
		Username:      ev.Actor.Username,
		DisplayName:   ev.Actor.FullName(),
		LastMessageID: ev.MessageID,
	})
	if r.store.IsBanned(ev.Actor.ID) {
		r.record(ctx, journal.Entry{Kind: journal.KindRejected, SenderID: ev.Actor.ID, MessageID: ev.MessageID})
		return withNotice(fmt.Errorf("message %d from %d: %w", ev.MessageID, ev.Actor.ID, ErrSenderBanned), r.texts.Banned)
	}
	return r.notifyAdmins(ctx, ev)
}

// record writes a journal entry; failures only reach the log.
func (r *Router) record(ctx context.Context, e journal.Entry) {
	if err := r.journal.Record(ctx, e); err != nil {
		logger.Warn(ctx, "journal", "record.failed",
			slog.String("kind", e.Kind),
			slog.String("err", err.Error()),
		)
	}
}
