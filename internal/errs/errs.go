// Package errs defines the shared error taxonomy for kickai.
//
// Every user-visible failure is classified by a Kind. Handlers and tools wrap
// causes with E(); the orchestrator and formatter only ever look at the Kind
// and the user message, never at internal error text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for routing and user messaging.
type Kind string

const (
	// Denied is an authorization or chat-scope violation. Non-fatal.
	Denied Kind = "denied"
	// UnknownCommand is a slash command not present in the registry.
	UnknownCommand Kind = "unknown_command"
	// InvalidInput is a malformed parameter (bad phone, unknown field, ...).
	InvalidInput Kind = "invalid_input"
	// NotFound is a missing player/member/invite/match reference.
	NotFound Kind = "not_found"
	// Conflict is a unique-constraint violation (duplicate phone, telegram id).
	Conflict Kind = "conflict"
	// InviteExpired is a redemption attempt past the invite TTL.
	InviteExpired Kind = "invite_expired"
	// InviteAlreadyUsed is a second redemption of a single-use invite.
	InviteAlreadyUsed Kind = "invite_already_used"
	// TimedOut is an orchestrator deadline expiry.
	TimedOut Kind = "timed_out"
	// DependencyUnavailable is an unreachable LLM or storage backend.
	DependencyUnavailable Kind = "dependency_unavailable"
	// SystemCritical is an invariant violation (uninitialized registry).
	// Never downgraded, never user-recoverable.
	SystemCritical Kind = "system_critical"
)

// Error is a classified error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string // user-facing, plain text
	Err     error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error with a user message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a classified error around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from any error. Unclassified errors map to
// DependencyUnavailable: the safe user-visible default for unexpected
// failures from storage or transport.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return DependencyUnavailable
}

// UserMessage extracts the user-facing message from an error, falling back
// to a canned message for the detected kind.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return CannedMessage(KindOf(err))
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CannedMessage returns the default user-facing text for a kind.
func CannedMessage(kind Kind) string {
	switch kind {
	case Denied:
		return "You don't have permission to do that here."
	case UnknownCommand:
		return "I don't recognize that command."
	case InvalidInput:
		return "That input doesn't look right. Please check and try again."
	case NotFound:
		return "I couldn't find what you're referring to."
	case Conflict:
		return "That would conflict with an existing record."
	case InviteExpired:
		return "This invite link has expired. Please ask a team admin for a new one."
	case InviteAlreadyUsed:
		return "Invite already used."
	case TimedOut:
		return "Sorry, that took too long to process. Please try again."
	case DependencyUnavailable:
		return "A backend service is temporarily unavailable. Please retry in a moment."
	case SystemCritical:
		return "Sorry, the system is unavailable right now. The team has been notified."
	default:
		return "Something went wrong. Please try again."
	}
}
