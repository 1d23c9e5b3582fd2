package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kickai-team/kickai/internal/commands"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// helpTools answer "what can I do here" questions from the command catalog.
// Visibility follows chat scope: leadership commands never appear in main
// chat listings.
func helpTools() []Tool {
	return []Tool{
		{
			Name:          "get_available_commands",
			Description:   "List the commands available in the current chat, grouped by feature.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				groups := commands.ListForChat(call.User.ChatKind)
				if groups == nil {
					return Failf(errs.SystemCritical, "%s", errs.CannedMessage(errs.SystemCritical))
				}

				var b strings.Builder
				data := make(map[string][]string, len(groups))
				for _, g := range groups {
					fmt.Fprintf(&b, "%s:\n", g.FeatureTag)
					for _, d := range g.Commands {
						fmt.Fprintf(&b, "  %s - %s\n", d.Name, d.Describe)
						data[g.FeatureTag] = append(data[g.FeatureTag], d.Name)
					}
				}
				return Success(strings.TrimRight(b.String(), "\n"), data)
			},
		},
		{
			Name:          "get_command_help",
			Description:   "Explain one command: what it does, where it works, and its usage.",
			Params:        schema(map[string]any{"command": map[string]any{"type": "string", "description": "Command name, with or without the leading slash"}}, "command"),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				name, ok := stringArg(call.Args, "command")
				if !ok {
					return Failf(errs.InvalidInput, "command is required.")
				}
				if !strings.HasPrefix(name, "/") {
					name = "/" + name
				}

				d, ok := commands.Get(name, call.User.ChatKind)
				if !ok {
					if _, exists := commands.Lookup(name); exists {
						return Failf(errs.Denied, "%s is not available in this chat.", name)
					}
					return Failf(errs.UnknownCommand, "There is no command %s.", name)
				}

				msg := fmt.Sprintf("%s - %s", d.Name, d.Describe)
				if d.Usage != "" {
					msg += fmt.Sprintf(" Usage: %s %s", d.Name, d.Usage)
				}
				return Success(msg, map[string]any{
					"name":       d.Name,
					"usage":      d.Usage,
					"chat_scope": d.ChatScope,
					"permission": d.Permission,
				})
			},
		},
		{
			Name:        "get_welcome_message",
			Description: "Produce the welcome text for the current chat and the caller's registration state.",
			Params:      schema(map[string]any{}),
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				var msg string
				switch {
				case !call.User.Registered():
					msg = "Welcome! You're not registered with this team yet. " +
						"If you received an invite link, just paste it here. " +
						"Otherwise ask a team admin to add you."
				case call.User.ChatKind == domain.ChatLeadership:
					msg = "Welcome to the leadership chat. Use /help to see the admin commands, " +
						"or just describe what you need."
				default:
					msg = "Welcome to the team chat! Use /help to see what I can do, " +
						"or ask me things like \"when is the next match?\"."
				}
				return Success(msg, nil)
			},
		},
	}
}
