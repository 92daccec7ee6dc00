package meeting

import "errors"

// Kind classifies an Error so transports can pick a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a domain failure with a stable machine-readable code.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrMissingUserID     = newError(KindValidation, "missing_user_id")
	ErrMissingTitle      = newError(KindValidation, "missing_title")
	ErrMissingQuestion   = newError(KindValidation, "missing_question")
	ErrMissingOptions    = newError(KindValidation, "missing_options")
	ErrMissingSeconds    = newError(KindValidation, "missing_seconds")
	ErrMissingOrderedIDs = newError(KindValidation, "missing_ordered_ids")
	ErrMissingOption     = newError(KindValidation, "missing_option")
	ErrInvalidDuration   = newError(KindValidation, "invalid_duration")
	ErrInvalidOption     = newError(KindValidation, "invalid_option")
	ErrInvalidOrder      = newError(KindValidation, "invalid_order")

	// ErrUnauthorizedHost rejects session creation by an identity outside the global policy.
	ErrUnauthorizedHost = newError(KindForbidden, "unauthorized_host")
	// ErrForbidden means the caller never was the host of the session.
	ErrForbidden = newError(KindForbidden, "forbidden")
	// ErrHostRevoked means the recorded host was removed from the global allow-list.
	ErrHostRevoked = newError(KindForbidden, "host_revoked")

	ErrSessionNotFound = newError(KindNotFound, "session_not_found")
	ErrItemNotFound    = newError(KindNotFound, "agenda_item_not_found")

	ErrSessionEnded     = newError(KindConflict, "session_ended")
	ErrDeleteActiveItem = newError(KindConflict, "delete_active_item")
	ErrNoNextItem       = newError(KindConflict, "no_next_item")
	ErrNoPreviousItem   = newError(KindConflict, "no_previous_item")
	ErrTimerEmpty       = newError(KindConflict, "timer_empty")
	ErrTimerNotPaused   = newError(KindConflict, "timer_not_paused")
	ErrTimerNegative    = newError(KindConflict, "timer_negative")
	ErrTimerExtendCap   = newError(KindConflict, "timer_extend_cap")
	ErrVoteNotOpen      = newError(KindConflict, "vote_not_open")
)

// CodeOf returns the code carried by err, or "internal_error" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}

// KindOf returns the Kind carried by err, or zero for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
