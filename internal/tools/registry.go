package tools

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/providers"
)

// Call is the per-invocation input: the resolved sender plus the arguments
// the model supplied. Identity always travels as typed fields, never inside
// prompt strings.
type Call struct {
	User *auth.UserContext
	Args map[string]any
}

// Tool is one registered operation. The registry is built from a static
// inventory at startup; there is no dynamic discovery.
type Tool struct {
	Name        string
	Description string
	Params      map[string]any // JSON Schema for the arguments object

	// DataProducing marks tools whose envelope data answers a "show me"
	// intent. The orchestrator uses this set to detect replies that claim
	// data without having fetched any.
	DataProducing bool

	// Mutating marks tools with side effects, for logging and for the
	// unregistered-sender guard.
	Mutating bool

	Invoke func(ctx context.Context, call *Call) *Envelope
}

// Registry is the read-mostly tool catalog.
type Registry struct {
	byName map[string]Tool
	order  []string
}

var registry atomic.Pointer[Registry]

// Init publishes the registry once; later calls are ignored. Same one-shot
// discipline as the command catalog.
func Init(tools []Tool) {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, dup := r.byName[t.Name]; dup {
			continue
		}
		r.byName[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	registry.CompareAndSwap(nil, r)
}

// Initialized reports whether the catalog has been published.
func Initialized() bool {
	return registry.Load() != nil
}

// Reset clears the registry. Test helper only.
func Reset() {
	registry.Store(nil)
}

// Get returns a tool by name.
func Get(name string) (Tool, bool) {
	r := registry.Load()
	if r == nil {
		return Tool{}, false
	}
	t, ok := r.byName[name]
	return t, ok
}

// Names returns every registered tool name in registration order.
func Names() []string {
	r := registry.Load()
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// DataProducingNames returns the names of data-producing tools, sorted. The
// orchestrator's hallucination check derives its allow-list from this, which
// keeps the list in sync with the registry by construction.
func DataProducingNames() []string {
	r := registry.Load()
	if r == nil {
		return nil
	}
	var names []string
	for _, name := range r.order {
		if r.byName[name].DataProducing {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ProviderDefs converts a named subset of the registry into provider tool
// definitions. Unknown names are skipped; agent tool sets are validated
// against the registry at startup, so a miss here means a test registry.
func ProviderDefs(names []string) []providers.ToolDefinition {
	r := registry.Load()
	if r == nil {
		return nil
	}
	defs := make([]providers.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, ok := r.byName[name]
		if !ok {
			continue
		}
		params := t.Params
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, providers.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return defs
}

// schema builds a JSON Schema object from property name → schema pairs.
func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// stringArg extracts a string argument; ok is false when absent or not a
// string.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok && v != ""
}

// stringsArg extracts a list-of-strings argument, tolerating the []any shape
// JSON decoding produces.
func stringsArg(args map[string]any, key string) ([]string, bool) {
	switch v := args[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
