// Package commands holds the declarative slash-command catalog. The registry
// is populated exactly once at startup (first write wins) and is lock-free to
// read afterwards. Any lookup before initialization is a system-critical
// condition: the caller must refuse the update rather than degrade.
package commands

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/kickai-team/kickai/internal/domain"
)

// Descriptor is the immutable metadata for one slash command.
type Descriptor struct {
	Name       string // slash-prefixed, e.g. "/addplayer"
	Describe   string
	FeatureTag string // grouping key for /help
	ChatScope  domain.ChatScope
	Permission domain.Permission
	Usage      string // argument hint for help text, may be empty
}

// Registry is the read-mostly command catalog.
type Registry struct {
	byName map[string]Descriptor
	order  []string // insertion order, for stable help listings
}

var registry atomic.Pointer[Registry]

// Init publishes the registry. The first successful call wins; later calls
// are ignored so a racing re-initialization can never swap the catalog under
// concurrent readers.
func Init(descriptors []Descriptor) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		name := strings.ToLower(d.Name)
		if _, dup := r.byName[name]; dup {
			continue
		}
		r.byName[name] = d
		r.order = append(r.order, name)
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

// Get returns the descriptor for name if it exists and is visible in the
// given chat. A command scoped to the other chat is reported as not found,
// matching the visibility rule for /help.
func Get(name string, kind domain.ChatKind) (Descriptor, bool) {
	r := registry.Load()
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.byName[strings.ToLower(name)]
	if !ok || !d.ChatScope.Admits(kind) {
		return Descriptor{}, false
	}
	return d, true
}

// Lookup returns the descriptor regardless of chat visibility. The
// orchestrator uses it to tell "unknown command" apart from "wrong chat".
func Lookup(name string) (Descriptor, bool) {
	r := registry.Load()
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// Group is a feature tag plus its visible commands, in registration order.
type Group struct {
	FeatureTag string
	Commands   []Descriptor
}

// ListForChat returns the commands visible in the given chat, grouped by
// feature tag. Groups are ordered by first appearance of the tag.
func ListForChat(kind domain.ChatKind) []Group {
	r := registry.Load()
	if r == nil {
		return nil
	}

	byTag := make(map[string][]Descriptor)
	var tagOrder []string
	for _, name := range r.order {
		d := r.byName[name]
		if !d.ChatScope.Admits(kind) {
			continue
		}
		if _, seen := byTag[d.FeatureTag]; !seen {
			tagOrder = append(tagOrder, d.FeatureTag)
		}
		byTag[d.FeatureTag] = append(byTag[d.FeatureTag], d)
	}

	groups := make([]Group, 0, len(tagOrder))
	for _, tag := range tagOrder {
		cmds := byTag[tag]
		sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
		groups = append(groups, Group{FeatureTag: tag, Commands: cmds})
	}
	return groups
}

// VisibleNames returns the command names visible in the given chat.
func VisibleNames(kind domain.ChatKind) []string {
	r := registry.Load()
	if r == nil {
		return nil
	}
	var names []string
	for _, name := range r.order {
		if r.byName[name].ChatScope.Admits(kind) {
			names = append(names, r.byName[name].Name)
		}
	}
	return names
}
