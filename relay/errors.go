package relay

import (
	"errors"
	"fmt"

	"github.com/m3rciful/relaybot/relay/journal"
	"github.com/m3rciful/relaybot/relay/payload"
)

// Error kinds. Executors wrap them with context; the router maps each kind to a
// notice for the actor.
var (
	// ErrAuthorizationDenied means the actor is not an administrator of the admin group.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrNotFound means the target sender is absent from the table the action needs.
	ErrNotFound = errors.New("not found")
	// ErrMalformedPayload means button data did not decode.
	ErrMalformedPayload = payload.ErrMalformed
	// ErrTransportFailure means a Bot API call failed.
	ErrTransportFailure = errors.New("transport failure")
	// ErrInvalidCommand means a command was missing or had malformed arguments.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrRefused means the action is not allowed on the target, such as banning an admin.
	ErrRefused = errors.New("refused")
	// ErrSenderBanned means content from a banned sender was turned away.
	ErrSenderBanned = errors.New("sender is banned")
)

// noticeError carries the text shown to the actor for a failure.
type noticeError struct {
	notice string
	// reported is set when the actor already saw the failure.
	reported bool
	err      error
}

func (e *noticeError) Error() string { return e.err.Error() }
func (e *noticeError) Unwrap() error { return e.err }

// withNotice attaches the text the router shows the actor for err.
func withNotice(err error, notice string) error {
	return &noticeError{notice: notice, err: err}
}

// reported marks err as already shown to the actor.
func reported(err error) error {
	return &noticeError{reported: true, err: err}
}

func noticeOf(err error) (string, bool) {
	var ne *noticeError
	if !errors.As(err, &ne) {
		return "", false
	}
	if ne.reported {
		return "", true
	}
	return ne.notice, ne.notice != ""
}

// actionError tags a failure with the stable code and outcome used in summary logs.
type actionError struct {
	code    string
	outcome string
	err     error
}

func (e *actionError) Error() string   { return e.err.Error() }
func (e *actionError) Unwrap() error   { return e.err }
func (e *actionError) Code() string    { return e.code }
func (e *actionError) Outcome() string { return e.outcome }

// classify wraps err with its code and outcome. Rejections that were reported to
// the actor carry a non-failure outcome.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *actionError
	if errors.As(err, &ae) {
		return err
	}
	code, outcome := errorCode(err)
	return &actionError{code: code, outcome: outcome, err: err}
}

func errorCode(err error) (code, outcome string) {
	switch {
	case errors.Is(err, ErrAuthorizationDenied):
		return "authorization_denied", "denied"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload", "rejected"
	case errors.Is(err, ErrNotFound):
		return "not_found", "rejected"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command", "rejected"
	case errors.Is(err, ErrRefused):
		return "refused", "rejected"
	case errors.Is(err, ErrSenderBanned):
		return "sender_banned", "rejected"
	case errors.Is(err, journal.ErrDisabled):
		return "journal_disabled", "rejected"
	case errors.Is(err, ErrTransportFailure):
		return "transport_failure", "fail"
	}
	return "internal", "fail"
}

func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransportFailure, err)
}
