package commands

import "github.com/kickai-team/kickai/internal/domain"

// Feature tags group commands in /help listings.
const (
	FeatureSystem     = "System"
	FeatureInfo       = "Information"
	FeaturePlayers    = "Player Management"
	FeatureMatches    = "Match Management"
	FeatureMessaging  = "Team Messaging"
	FeatureOnboarding = "Onboarding"
)

// Inventory is the fixed command catalog. Scope and permission follow the
// access matrix: admin mutations are leadership-only, self-service commands
// work anywhere the command makes sense.
func Inventory() []Descriptor {
	return []Descriptor{
		{Name: "/help", Describe: "Show available commands for this chat", FeatureTag: FeatureSystem, ChatScope: domain.ScopeAny, Permission: domain.PermPublic},
		{Name: "/ping", Describe: "Check that the bot is alive", FeatureTag: FeatureSystem, ChatScope: domain.ScopeAny, Permission: domain.PermPublic},
		{Name: "/version", Describe: "Show the bot version", FeatureTag: FeatureSystem, ChatScope: domain.ScopeAny, Permission: domain.PermPublic},

		{Name: "/myinfo", Describe: "Show your own record", FeatureTag: FeatureInfo, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer},
		{Name: "/status", Describe: "Show your registration status", FeatureTag: FeatureInfo, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer},
		{Name: "/list", Describe: "List team players (and members in leadership)", FeatureTag: FeatureInfo, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer},
		{Name: "/background", Describe: "Show team background information", FeatureTag: FeatureInfo, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer},

		{Name: "/register", Describe: "Register yourself as the first team admin", FeatureTag: FeatureOnboarding, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermPublic, Usage: "<name> <phone> <role>"},
		{Name: "/addplayer", Describe: "Add a player and issue a main-chat invite", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermAdmin, Usage: "<name> <phone>"},
		{Name: "/addmember", Describe: "Add a team member and issue a leadership invite", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermAdmin, Usage: "<name> <phone> [role]"},
		{Name: "/approve", Describe: "Approve a pending player", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermAdmin, Usage: "<player_id>"},
		{Name: "/update", Describe: "Update one of your own fields", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer, Usage: "<field> <value>"},
		{Name: "/updateplayer", Describe: "Update a player's field", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermAdmin, Usage: "<player_id> <field> <value>"},
		{Name: "/updatemember", Describe: "Update a member's field", FeatureTag: FeaturePlayers, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermAdmin, Usage: "<member_id> <field> <value>"},

		{Name: "/creatematch", Describe: "Schedule a match", FeatureTag: FeatureMatches, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermLeader, Usage: "<opponent> <date> <time> [venue]"},
		{Name: "/listmatches", Describe: "List upcoming matches", FeatureTag: FeatureMatches, ChatScope: domain.ScopeAny, Permission: domain.PermPlayer},
		{Name: "/selectsquad", Describe: "Select the squad for a match", FeatureTag: FeatureMatches, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermLeader, Usage: "<match_id> <player_id>..."},

		{Name: "/announce", Describe: "Send an announcement to the main chat", FeatureTag: FeatureMessaging, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermLeader, Usage: "<text>"},
		{Name: "/poll", Describe: "Post a poll question to the main chat", FeatureTag: FeatureMessaging, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermLeader, Usage: "<question>"},
		{Name: "/remind", Describe: "Send a reminder to the main chat", FeatureTag: FeatureMessaging, ChatScope: domain.ScopeLeadershipOnly, Permission: domain.PermLeader, Usage: "<text>"},
	}
}
