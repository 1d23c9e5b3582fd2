package tools

import (
	"context"
	"fmt"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
)

// BroadcastFunc sends plain text to a team's main chat. The fleet supplies
// the real implementation; tests inject a recorder.
type BroadcastFunc func(ctx context.Context, teamID, text string) error

func systemTools(svcs *service.Services, version string) []Tool {
	return []Tool{
		{
			Name:        "ping",
			Description: "Liveness check.",
			Params:      schema(map[string]any{}),
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				return Success("Pong! The bot is up and responding.", nil)
			},
		},
		{
			Name:          "get_version_info",
			Description:   "Report the running bot version.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				return Success(fmt.Sprintf("KICKAI %s", version), map[string]any{"version": version})
			},
		},
		{
			Name:          "get_team_background",
			Description:   "Describe the team: name and roster size.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				team, err := svcs.Teams.Get(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				players, err := svcs.Players.ListActive(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				return Success(
					fmt.Sprintf("%s has %d active players. Founded on %s.",
						team.Name, len(players), team.CreatedAt.Format("2 January 2006")),
					map[string]any{
						"team_id":        team.TeamID,
						"name":           team.Name,
						"active_players": len(players),
					})
			},
		},
	}
}

// commsTools broadcast to the main chat. Leadership-tier only; the fleet's
// outbound path applies the same plain-text sanitization as replies.
func commsTools(broadcast BroadcastFunc) []Tool {
	send := func(ctx context.Context, call *Call, prefix, key string) *Envelope {
		if err := auth.CheckPermission(call.User, domain.PermLeader); err != nil {
			return Failure(err)
		}
		text, ok := stringArg(call.Args, key)
		if !ok {
			return Failf(errs.InvalidInput, "%s is required.", key)
		}
		if broadcast == nil {
			return Failf(errs.DependencyUnavailable, "Messaging is not available right now.")
		}
		if err := broadcast(ctx, call.User.TeamID, prefix+text); err != nil {
			return Failure(err)
		}
		return Success("Sent to the main chat.", nil)
	}

	return []Tool{
		{
			Name:        "send_announcement",
			Description: "Post an announcement to the team's main chat.",
			Params:      schema(map[string]any{"text": map[string]any{"type": "string"}}, "text"),
			Mutating:    true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				return send(ctx, call, "Announcement: ", "text")
			},
		},
		{
			Name:        "send_poll",
			Description: "Post a poll question to the team's main chat; players answer by replying.",
			Params:      schema(map[string]any{"question": map[string]any{"type": "string"}}, "question"),
			Mutating:    true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				return send(ctx, call, "Poll: ", "question")
			},
		},
		{
			Name:        "send_reminder",
			Description: "Post a reminder to the team's main chat.",
			Params:      schema(map[string]any{"text": map[string]any{"type": "string"}}, "text"),
			Mutating:    true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				return send(ctx, call, "Reminder: ", "text")
			},
		},
	}
}
