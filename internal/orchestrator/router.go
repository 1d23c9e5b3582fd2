package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kickai-team/kickai/internal/agents"
	"github.com/kickai-team/kickai/internal/commands"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// agentForCommand is the authoritative command → agent map. A few commands
// are chat-aware: the same command means a different view in each chat.
func agentForCommand(name string, kind domain.ChatKind) string {
	switch name {
	case "/help", "/version", "/ping":
		return agents.HelpAssistant

	case "/myinfo", "/status":
		if kind == domain.ChatLeadership {
			return agents.TeamAdministrator
		}
		return agents.MessageProcessor

	case "/list":
		if kind == domain.ChatLeadership {
			return agents.MessageProcessor
		}
		return agents.PlayerCoordinator

	case "/addplayer", "/addmember", "/approve",
		"/updateplayer", "/updatemember",
		"/announce", "/poll", "/remind":
		return agents.TeamAdministrator

	case "/update":
		return agents.PlayerCoordinator

	case "/creatematch", "/listmatches", "/selectsquad":
		return agents.SquadSelector

	default:
		return agents.MessageProcessor
	}
}

// commandNeedsData marks the commands whose reply must come from storage. The
// orchestrator rejects agent replies for these when no data-producing tool
// ran successfully.
func commandNeedsData(name string) bool {
	switch name {
	case "/list", "/listmatches", "/myinfo", "/status", "/background":
		return true
	}
	return false
}

// unknownCommandReply builds the scenario where a typo still teaches: the
// unrecognized name plus the commands actually visible here, grouped by
// feature.
func unknownCommandReply(name string, kind domain.ChatKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unrecognized Command: %s\n\nAvailable commands in this chat:\n", name)
	for _, g := range commands.ListForChat(kind) {
		fmt.Fprintf(&b, "\n%s:\n", g.FeatureTag)
		for _, d := range g.Commands {
			fmt.Fprintf(&b, "  %s - %s\n", d.Name, d.Describe)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var phoneTokenRe = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,}$`)

// parseRegisterArgs splits "/register <name...> <phone> <role...>". The
// phone token is the anchor: everything before is the name, everything after
// is the role (surrounding quotes stripped).
func parseRegisterArgs(text string) (name, phone, role string, err error) {
	fields := strings.Fields(text)[1:]
	phoneIdx := -1
	for i, f := range fields {
		if phoneTokenRe.MatchString(f) {
			phoneIdx = i
			break
		}
	}
	if phoneIdx <= 0 {
		return "", "", "", errs.E(errs.InvalidInput, "I need your name and phone number.")
	}

	name = strings.Join(fields[:phoneIdx], " ")
	phone = fields[phoneIdx]
	role = strings.Trim(strings.Join(fields[phoneIdx+1:], " "), `"'`)
	return name, phone, role, nil
}

// normalizeAgentName extracts an agent name from the NLP processor's reply,
// tolerating surrounding prose, case, and separator variants: the prompt asks
// for snake_case but models also produce "TeamAdministrator" or
// "the player coordinator". Matching happens on letters only.
func normalizeAgentName(reply string) string {
	squashed := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, reply)

	for _, name := range []string{
		agents.TeamAdministrator, agents.SquadSelector, agents.PlayerCoordinator,
		agents.HelpAssistant, agents.MessageProcessor,
	} {
		if strings.Contains(squashed, strings.ReplaceAll(name, "_", "")) {
			return name
		}
	}
	return ""
}
