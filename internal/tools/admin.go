package tools

import (
	"context"
	"fmt"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/service"
)

// adminTools are the mutating roster operations. Each re-checks admin rights
// itself: the orchestrator gates the command path, but natural-language
// routing can reach these too, and a tool is the last line of defense.
func adminTools(svcs *service.Services, invites *invite.Service) []Tool {
	return []Tool{
		{
			Name:        "create_player",
			Description: "Add a new player to the roster in pending state and issue a single-use invite link to the main chat.",
			Params: schema(map[string]any{
				"name":  map[string]any{"type": "string", "description": "Player full name"},
				"phone": map[string]any{"type": "string", "description": "Phone number, E.164 preferred"},
			}, "name", "phone"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if err := auth.CheckPermission(call.User, domain.PermAdmin); err != nil {
					return Failure(err)
				}
				name, ok := stringArg(call.Args, "name")
				if !ok {
					return Failf(errs.InvalidInput, "name is required.")
				}
				phone, ok := stringArg(call.Args, "phone")
				if !ok {
					return Failf(errs.InvalidInput, "phone is required.")
				}

				team, err := svcs.Teams.Get(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				player, err := svcs.Players.Create(ctx, call.User.TeamID, call.User.MemberID, name, phone)
				if err != nil {
					return Failure(err)
				}
				issued, err := invites.Issue(ctx, team, domain.SubjectPlayer, player.PlayerID, call.User.MemberID)
				if err != nil {
					return Failure(err)
				}

				return Success(
					fmt.Sprintf("Added %s as %s (pending). Send them this invite link to join the main chat: %s",
						player.Name, player.PlayerID, issued.URL),
					map[string]any{
						"player_id":  player.PlayerID,
						"status":     player.Status,
						"invite_url": issued.URL,
						"expires_at": issued.Invite.ExpiresAt,
					})
			},
		},
		{
			Name:        "create_member",
			Description: "Add a new staff member in pending state and issue a single-use invite link to the leadership chat.",
			Params: schema(map[string]any{
				"name":  map[string]any{"type": "string"},
				"phone": map[string]any{"type": "string"},
				"role":  map[string]any{"type": "string", "description": "Free-text role, e.g. coach"},
			}, "name", "phone"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if err := auth.CheckPermission(call.User, domain.PermAdmin); err != nil {
					return Failure(err)
				}
				name, ok := stringArg(call.Args, "name")
				if !ok {
					return Failf(errs.InvalidInput, "name is required.")
				}
				phone, ok := stringArg(call.Args, "phone")
				if !ok {
					return Failf(errs.InvalidInput, "phone is required.")
				}
				role, _ := stringArg(call.Args, "role")

				team, err := svcs.Teams.Get(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				member, err := svcs.Members.Create(ctx, call.User.TeamID, call.User.MemberID, name, phone, role)
				if err != nil {
					return Failure(err)
				}
				issued, err := invites.Issue(ctx, team, domain.SubjectMember, member.MemberID, call.User.MemberID)
				if err != nil {
					return Failure(err)
				}

				return Success(
					fmt.Sprintf("Added %s as %s (%s, pending). Invite link for the leadership chat: %s",
						member.Name, member.MemberID, member.Role, issued.URL),
					map[string]any{
						"member_id":  member.MemberID,
						"status":     member.Status,
						"invite_url": issued.URL,
						"expires_at": issued.Invite.ExpiresAt,
					})
			},
		},
		{
			Name:        "approve_player",
			Description: "Approve a pending player who has already joined via their invite link.",
			Params: schema(map[string]any{
				"player_id": map[string]any{"type": "string"},
			}, "player_id"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if err := auth.CheckPermission(call.User, domain.PermAdmin); err != nil {
					return Failure(err)
				}
				playerID, ok := stringArg(call.Args, "player_id")
				if !ok {
					return Failf(errs.InvalidInput, "player_id is required.")
				}
				p, err := svcs.Players.Approve(ctx, call.User.TeamID, call.User.MemberID, playerID)
				if err != nil {
					return Failure(err)
				}
				return Success(fmt.Sprintf("%s (%s) is now active.", p.Name, p.PlayerID), nil)
			},
		},
	}
}
