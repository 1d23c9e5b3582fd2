package tools

import (
	"context"
	"fmt"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
)

// playerSummary is the roster line exposed through tool data.
type playerSummary struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Status   string `json:"status"`
}

type memberSummary struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
	Status   string `json:"status"`
}

func summarizePlayers(players []*domain.Player) []playerSummary {
	out := make([]playerSummary, 0, len(players))
	for _, p := range players {
		out = append(out, playerSummary{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Position: string(p.Position),
			Status:   string(p.Status),
		})
	}
	return out
}

func summarizeMembers(members []*domain.Member) []memberSummary {
	out := make([]memberSummary, 0, len(members))
	for _, m := range members {
		out = append(out, memberSummary{
			MemberID: m.MemberID,
			Name:     m.Name,
			Role:     m.Role,
			IsAdmin:  m.IsAdmin,
			Status:   string(m.Status),
		})
	}
	return out
}

// rosterTools are the read-only roster lookups.
func rosterTools(svcs *service.Services) []Tool {
	return []Tool{
		{
			Name:          "list_team_members_and_players",
			Description:   "List the team roster. Players are always included; staff members are included only when called from the leadership chat.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				players, err := svcs.Players.List(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				data := map[string]any{"players": summarizePlayers(players)}
				msg := fmt.Sprintf("The team has %d players.", len(players))

				if call.User.ChatKind == domain.ChatLeadership {
					members, err := svcs.Members.List(ctx, call.User.TeamID)
					if err != nil {
						return Failure(err)
					}
					data["members"] = summarizeMembers(members)
					msg = fmt.Sprintf("The team has %d players and %d members.", len(players), len(members))
				}
				return Success(msg, data)
			},
		},
		{
			Name:          "get_active_players",
			Description:   "List only the active players on the team.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				players, err := svcs.Players.ListActive(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				return Success(fmt.Sprintf("%d active players.", len(players)),
					map[string]any{"players": summarizePlayers(players)})
			},
		},
		{
			Name:          "get_my_status",
			Description:   "Look up the calling user's own roster record and registration status.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				switch {
				case call.User.PlayerID != "":
					p, err := svcs.Players.Get(ctx, call.User.TeamID, call.User.PlayerID)
					if err != nil {
						return Failure(err)
					}
					return Success(
						fmt.Sprintf("%s (%s): %s %s, phone %s.", p.Name, p.PlayerID, p.Status, p.Position, p.Phone),
						map[string]any{"player": p})
				case call.User.MemberID != "":
					m, err := svcs.Members.Get(ctx, call.User.TeamID, call.User.MemberID)
					if err != nil {
						return Failure(err)
					}
					return Success(
						fmt.Sprintf("%s (%s): %s %s, phone %s.", m.Name, m.MemberID, m.Status, m.Role, m.Phone),
						map[string]any{"member": m})
				default:
					return Failf(errs.NotFound, "You are not registered with this team.")
				}
			},
		},
		{
			Name:          "get_player_status",
			Description:   "Look up one player's record by player id.",
			Params:        schema(map[string]any{"player_id": map[string]any{"type": "string", "description": "Team-scoped player id, e.g. 01MS"}}, "player_id"),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				playerID, ok := stringArg(call.Args, "player_id")
				if !ok {
					return Failf(errs.InvalidInput, "player_id is required.")
				}
				p, err := svcs.Players.Get(ctx, call.User.TeamID, playerID)
				if err != nil {
					return Failure(err)
				}
				return Success(
					fmt.Sprintf("%s (%s) is %s, playing %s.", p.Name, p.PlayerID, p.Status, p.Position),
					map[string]any{"player": summarizePlayers([]*domain.Player{p})[0]})
			},
		},
		{
			Name:        "update_player_field",
			Description: "Update a player field (phone, email, position, emergency_contact). Without player_id the caller updates their own record; updating someone else needs admin rights.",
			Params: schema(map[string]any{
				"player_id": map[string]any{"type": "string", "description": "Target player id; omit to update yourself"},
				"field":     map[string]any{"type": "string", "enum": service.PlayerUpdatableFields},
				"value":     map[string]any{"type": "string"},
			}, "field", "value"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				field, ok := stringArg(call.Args, "field")
				if !ok {
					return Failf(errs.InvalidInput, "field is required.")
				}
				value, ok := stringArg(call.Args, "value")
				if !ok {
					return Failf(errs.InvalidInput, "value is required.")
				}

				playerID, _ := stringArg(call.Args, "player_id")
				actor := call.User.PlayerID
				if actor == "" {
					actor = call.User.MemberID
				}
				switch {
				case playerID == "" || playerID == call.User.PlayerID:
					playerID = call.User.PlayerID
					if playerID == "" {
						return Failf(errs.Denied, "You don't have a player record to update.")
					}
				default:
					if err := auth.CheckPermission(call.User, domain.PermAdmin); err != nil {
						return Failure(err)
					}
				}

				p, err := svcs.Players.UpdateField(ctx, call.User.TeamID, actor, playerID, field, value)
				if err != nil {
					return Failure(err)
				}
				return Success(fmt.Sprintf("Updated %s for %s (%s).", field, p.Name, p.PlayerID), nil)
			},
		},
		{
			Name:        "update_member_field",
			Description: "Update a member field (phone, email, role). Updating someone else needs admin rights.",
			Params: schema(map[string]any{
				"member_id": map[string]any{"type": "string", "description": "Target member id; omit to update yourself"},
				"field":     map[string]any{"type": "string", "enum": service.MemberUpdatableFields},
				"value":     map[string]any{"type": "string"},
			}, "field", "value"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				field, ok := stringArg(call.Args, "field")
				if !ok {
					return Failf(errs.InvalidInput, "field is required.")
				}
				value, ok := stringArg(call.Args, "value")
				if !ok {
					return Failf(errs.InvalidInput, "value is required.")
				}

				memberID, _ := stringArg(call.Args, "member_id")
				switch {
				case memberID == "" || memberID == call.User.MemberID:
					memberID = call.User.MemberID
					if memberID == "" {
						return Failf(errs.Denied, "You don't have a member record to update.")
					}
				default:
					if err := auth.CheckPermission(call.User, domain.PermAdmin); err != nil {
						return Failure(err)
					}
				}

				m, err := svcs.Members.UpdateField(ctx, call.User.TeamID, call.User.MemberID, memberID, field, value)
				if err != nil {
					return Failure(err)
				}
				return Success(fmt.Sprintf("Updated %s for %s (%s).", field, m.Name, m.MemberID), nil)
			},
		},
	}
}
