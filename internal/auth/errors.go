package auth

import (
	"errors"
	"fmt"
)

// Kind classifies how an authentication-related failure should be surfaced.
type Kind int

const (
	// KindSilent is an expected race: a request failing during logout or
	// losing the race to an already scheduled login redirect.
	KindSilent Kind = iota + 1
	// KindRedirect marks the failure that scheduled the login redirect.
	KindRedirect
	// KindMismatch is a CSRF token mismatch that persisted after one replay.
	KindMismatch
)

func (k Kind) String() string {
	switch k {
	case KindSilent:
		return "silent"
	case KindRedirect:
		return "redirect"
	case KindMismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Error struct {
	Kind       Kind
	Status     int
	LoggingOut bool
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth %s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Silent reports whether the error should be kept away from the user.
func (e *Error) Silent() bool {
	return e.Kind == KindSilent || e.Kind == KindRedirect
}

func IsSilent(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Silent()
}

func IsLoggingOut(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.LoggingOut
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
