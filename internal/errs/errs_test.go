package errs

import (
	"errors"
	"fmt"
	"testing"
)

// TestKindOf_Classified verifies that wrapped *Error values keep their kind
// through additional fmt.Errorf wrapping.
func TestKindOf_Classified(t *testing.T) {
	base := E(Conflict, "duplicate phone")
	wrapped := fmt.Errorf("create player: %w", base)

	if got := KindOf(wrapped); got != Conflict {
		t.Errorf("KindOf = %q, want %q", got, Conflict)
	}
}

// TestKindOf_Unclassified verifies that plain errors default to
// DependencyUnavailable.
func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("connection reset")); got != DependencyUnavailable {
		t.Errorf("KindOf = %q, want %q", got, DependencyUnavailable)
	}
}

// TestUserMessage verifies message extraction and canned fallback.
func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"explicit message", E(Denied, "leadership chat only"), "leadership chat only"},
		{"canned fallback", errors.New("boom"), CannedMessage(DependencyUnavailable)},
		{"empty message falls back", &Error{Kind: TimedOut}, CannedMessage(TimedOut)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestUnwrap verifies errors.Is works through the taxonomy wrapper.
func TestUnwrap(t *testing.T) {
	cause := errors.New("no documents")
	err := Wrap(NotFound, "player not found", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}
