// Package tools holds the typed domain operations agents may invoke. Every
// tool returns the same JSON envelope, success or error, so the orchestrator
// and the agents reason about outcomes uniformly. Tools delegate to the
// domain services and never touch storage directly.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/kickai-team/kickai/internal/errs"
)

// Envelope is the uniform tool reply.
type Envelope struct {
	Status    string    `json:"status"` // "success" | "error"
	ErrorKind errs.Kind `json:"error_kind,omitempty"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
}

// Success builds a success envelope. Message is user-facing text; data is the
// tool-specific payload and may be nil.
func Success(message string, data any) *Envelope {
	return &Envelope{Status: "success", Message: message, Data: data}
}

// Failure classifies err and builds an error envelope from it.
func Failure(err error) *Envelope {
	return &Envelope{
		Status:    "error",
		ErrorKind: errs.KindOf(err),
		Message:   errs.UserMessage(err),
	}
}

// Failf builds an error envelope with an explicit kind.
func Failf(kind errs.Kind, format string, args ...any) *Envelope {
	return &Envelope{
		Status:    "error",
		ErrorKind: kind,
		Message:   fmt.Sprintf(format, args...),
	}
}

// OK reports whether the envelope is a success.
func (e *Envelope) OK() bool { return e.Status == "success" }

// JSON renders the envelope for the LLM transcript.
func (e *Envelope) JSON() string {
	b, err := json.Marshal(e)
	if err != nil {
		// Data was not serializable. Degrade to the message alone rather
		// than hand the model a marshalling error.
		fallback := Envelope{Status: e.Status, ErrorKind: e.ErrorKind, Message: e.Message}
		b, _ = json.Marshal(fallback)
	}
	return string(b)
}
