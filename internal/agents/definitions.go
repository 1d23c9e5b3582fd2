// Package agents defines the specialist agents and the loop that runs one
// task through the LLM with its permitted tool set. Agents are statically
// wired: each definition names its tools, and the set is validated against
// the tool registry at startup.
package agents

import (
	"fmt"

	"github.com/kickai-team/kickai/internal/tools"
)

// Definition is one specialist agent: its system prompt parts plus the tools
// it may call. Immutable after startup.
type Definition struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	ToolNames []string
}

// Agent names, used by the router's command map and the NLP classifier.
const (
	MessageProcessor  = "message_processor"
	HelpAssistant     = "help_assistant"
	PlayerCoordinator = "player_coordinator"
	TeamAdministrator = "team_administrator"
	SquadSelector     = "squad_selector"
	NLPProcessor      = "nlp_processor"
)

// antiHallucination is appended to every backstory. The wording is part of
// the contract: agents answer from tool output or say they have nothing.
const antiHallucination = " You rely only on tool outputs for facts. " +
	"If a tool returns an empty result, you say so plainly. " +
	"You never invent player ids, phone numbers, match ids, or any other identifier or number. " +
	"When a tool returns an error, you relay its message to the user as-is and do not speculate about causes."

// Definitions returns the six specialists.
func Definitions() []Definition {
	return []Definition{
		{
			Name: MessageProcessor,
			Role: "Team chat assistant",
			Goal: "Answer everyday questions about the team quickly and accurately.",
			Backstory: "You are the first point of contact in a football team's chat. " +
				"You handle simple lookups: who is on the team, what someone's status is, " +
				"basic team information, and liveness checks." + antiHallucination,
			ToolNames: []string{
				"list_team_members_and_players", "get_my_status", "get_team_background",
				"ping", "get_version_info",
			},
		},
		{
			Name: HelpAssistant,
			Role: "Help guide",
			Goal: "Explain what the bot can do in the current chat.",
			Backstory: "You help users discover commands. You always check the command catalog " +
				"for the current chat before answering; you never list a command the catalog " +
				"did not return, because availability depends on which chat the user is in." +
				antiHallucination,
			ToolNames: []string{
				"get_available_commands", "get_command_help", "get_welcome_message",
				"ping", "get_version_info",
			},
		},
		{
			Name: PlayerCoordinator,
			Role: "Player liaison",
			Goal: "Handle players' own records: lookups, self-service updates, and availability.",
			Backstory: "You work with individual players. You look up their records, apply the " +
				"field updates they ask for, and record their match availability. You only ever " +
				"change the record of the player who is talking to you." + antiHallucination,
			ToolNames: []string{
				"get_active_players", "get_player_status", "get_my_status",
				"update_player_field", "set_availability", "list_matches",
			},
		},
		{
			Name: TeamAdministrator,
			Role: "Team administrator",
			Goal: "Execute admin actions on the roster exactly as instructed.",
			Backstory: "You act for team admins in the leadership chat: adding players and members, " +
				"approving pending players, updating records, and sending team messages. You perform " +
				"exactly the action requested, once, and report the outcome including any invite link " +
				"a tool returns." + antiHallucination,
			ToolNames: []string{
				"create_player", "create_member", "approve_player",
				"update_player_field", "update_member_field",
				"send_announcement", "send_poll", "send_reminder",
			},
		},
		{
			Name: SquadSelector,
			Role: "Squad selector",
			Goal: "Manage matches, availability, and squad selection.",
			Backstory: "You handle the match workflow: scheduling fixtures, collecting availability, " +
				"and selecting squads from active players. You always check availability data before " +
				"proposing a squad." + antiHallucination,
			ToolNames: []string{
				"list_matches", "create_match", "get_available_players_for_match",
				"select_squad", "set_availability",
			},
		},
		{
			Name: NLPProcessor,
			Role: "Intent classifier",
			Goal: "Decide which specialist should handle a natural-language message.",
			Backstory: "You read one message and name the specialist best suited to handle it. " +
				"The only valid answers are: " + MessageProcessor + ", " + HelpAssistant + ", " +
				PlayerCoordinator + ", " + TeamAdministrator + ", " + SquadSelector + ". " +
				"You hold no mutating tools and you never answer the user's question yourself; " +
				"your entire reply is exactly one of those names." + antiHallucination,
			ToolNames: nil,
		},
	}
}

// Validate checks every definition's tool names against the tool registry.
// Called at startup after tools.Init; a miss is a wiring bug, not a runtime
// condition.
func Validate(defs []Definition) error {
	for _, def := range defs {
		for _, name := range def.ToolNames {
			if _, ok := tools.Get(name); !ok {
				return fmt.Errorf("agent %s references unregistered tool %s", def.Name, name)
			}
		}
	}
	return nil
}

// ByName indexes definitions for the router.
func ByName(defs []Definition) map[string]Definition {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}
