package errors

import (
	"errors"
	"fmt"
)

// Kind classifies every error the link lifecycle can return.
// Callers switch over KindOf(err) to handle each outcome.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAccessDenied
	KindExpired
	KindQuotaExceeded
	KindPersistence
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindExpired:
		return "expired"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindPersistence:
		return "persistence"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// ErrValidation is returned for caller-fixable input: bad URL, unknown owner, bad settings.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a short code or a user does not exist.
var ErrNotFound = errors.New("not found")

// ErrAccessDenied is returned when a user acts on a link owned by someone else.
var ErrAccessDenied = errors.New("access denied")

// ErrExpired is returned when a link existed but its TTL elapsed. The link is removed.
var ErrExpired = errors.New("link expired")

// ErrQuotaExceeded is returned when a link has used its click budget or is inactive.
var ErrQuotaExceeded = errors.New("click quota exceeded")

// ErrPersistence wraps storage failures.
var ErrPersistence = errors.New("persistence failure")

// ErrCorruptState is returned when stored data breaks an invariant, e.g. a user
// policy whose quota lies outside the configured bounds.
var ErrCorruptState = errors.New("corrupt state")

var sentinels = map[Kind]error{
	KindValidation:    ErrValidation,
	KindNotFound:      ErrNotFound,
	KindAccessDenied:  ErrAccessDenied,
	KindExpired:       ErrExpired,
	KindQuotaExceeded: ErrQuotaExceeded,
	KindPersistence:   ErrPersistence,
	KindState:         ErrCorruptState,
}

// Error carries a kind, the failing operation and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrExpired) works.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...any) error {
	return newError(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(KindNotFound, op, format, args...)
}

func AccessDenied(op, format string, args ...any) error {
	return newError(KindAccessDenied, op, format, args...)
}

func Expired(op, format string, args ...any) error {
	return newError(KindExpired, op, format, args...)
}

func QuotaExceeded(op, format string, args ...any) error {
	return newError(KindQuotaExceeded, op, format, args...)
}

func CorruptState(op, format string, args ...any) error {
	return newError(KindState, op, format, args...)
}

// Persistence wraps a storage error. A nil cause yields nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindPersistence {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// ErrConfigLoad is returned when configuration loading or validation fails.
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}
