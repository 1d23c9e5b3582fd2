package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
)

// kickoffLayouts are the accepted kickoff formats, tried in order.
var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

func parseKickoff(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range kickoffLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.E(errs.InvalidInput,
		"Kickoff must look like 2026-09-05 14:00.")
}

type matchSummary struct {
	MatchID   string   `json:"match_id"`
	Opponent  string   `json:"opponent"`
	KickoffAt string   `json:"kickoff_at"`
	Venue     string   `json:"venue,omitempty"`
	Status    string   `json:"status"`
	Squad     []string `json:"squad,omitempty"`
}

func summarizeMatches(matches []*domain.Match) []matchSummary {
	out := make([]matchSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchSummary{
			MatchID:   m.MatchID,
			Opponent:  m.Opponent,
			KickoffAt: m.KickoffAt.Format("2006-01-02 15:04"),
			Venue:     m.Venue,
			Status:    string(m.Status),
			Squad:     m.Squad,
		})
	}
	return out
}

func matchTools(svcs *service.Services) []Tool {
	return []Tool{
		{
			Name:          "list_matches",
			Description:   "List upcoming matches for the team.",
			Params:        schema(map[string]any{}),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				matches, err := svcs.Matches.ListUpcoming(ctx, call.User.TeamID)
				if err != nil {
					return Failure(err)
				}
				if len(matches) == 0 {
					return Success("There are no upcoming matches.", map[string]any{"matches": []matchSummary{}})
				}
				return Success(fmt.Sprintf("%d upcoming matches.", len(matches)),
					map[string]any{"matches": summarizeMatches(matches)})
			},
		},
		{
			Name:        "create_match",
			Description: "Schedule a new match.",
			Params: schema(map[string]any{
				"opponent": map[string]any{"type": "string"},
				"kickoff":  map[string]any{"type": "string", "description": "Kickoff time, e.g. 2026-09-05 14:00"},
				"venue":    map[string]any{"type": "string"},
			}, "opponent", "kickoff"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if err := auth.CheckPermission(call.User, domain.PermLeader); err != nil {
					return Failure(err)
				}
				opponent, ok := stringArg(call.Args, "opponent")
				if !ok {
					return Failf(errs.InvalidInput, "opponent is required.")
				}
				kickoffStr, ok := stringArg(call.Args, "kickoff")
				if !ok {
					return Failf(errs.InvalidInput, "kickoff is required.")
				}
				kickoff, err := parseKickoff(kickoffStr)
				if err != nil {
					return Failure(err)
				}
				venue, _ := stringArg(call.Args, "venue")

				actor := call.User.MemberID
				match, err := svcs.Matches.Create(ctx, call.User.TeamID, actor, opponent, kickoff, venue)
				if err != nil {
					return Failure(err)
				}
				return Success(
					fmt.Sprintf("Match %s against %s scheduled for %s.",
						match.MatchID, match.Opponent, match.KickoffAt.Format("2006-01-02 15:04")),
					map[string]any{"match_id": match.MatchID})
			},
		},
		{
			Name:        "select_squad",
			Description: "Select the squad for a match from active players.",
			Params: schema(map[string]any{
				"match_id":   map[string]any{"type": "string"},
				"player_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			}, "match_id", "player_ids"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if err := auth.CheckPermission(call.User, domain.PermLeader); err != nil {
					return Failure(err)
				}
				matchID, ok := stringArg(call.Args, "match_id")
				if !ok {
					return Failf(errs.InvalidInput, "match_id is required.")
				}
				playerIDs, ok := stringsArg(call.Args, "player_ids")
				if !ok {
					return Failf(errs.InvalidInput, "player_ids must be a list of player ids.")
				}

				match, err := svcs.Matches.SelectSquad(ctx, call.User.TeamID, call.User.MemberID, matchID, playerIDs)
				if err != nil {
					return Failure(err)
				}
				return Success(
					fmt.Sprintf("Squad of %d selected for match %s.", len(match.Squad), match.MatchID),
					map[string]any{"match_id": match.MatchID, "squad": match.Squad})
			},
		},
		{
			Name:          "get_available_players_for_match",
			Description:   "List the active players who declared themselves available for a match.",
			Params:        schema(map[string]any{"match_id": map[string]any{"type": "string"}}, "match_id"),
			DataProducing: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				matchID, ok := stringArg(call.Args, "match_id")
				if !ok {
					return Failf(errs.InvalidInput, "match_id is required.")
				}
				players, err := svcs.Matches.AvailablePlayers(ctx, call.User.TeamID, matchID)
				if err != nil {
					return Failure(err)
				}
				if len(players) == 0 {
					return Success(fmt.Sprintf("No players have declared availability for %s yet.", matchID),
						map[string]any{"players": []playerSummary{}})
				}
				return Success(fmt.Sprintf("%d players available for %s.", len(players), matchID),
					map[string]any{"players": summarizePlayers(players)})
			},
		},
		{
			Name:        "set_availability",
			Description: "Record the calling player's availability for a match.",
			Params: schema(map[string]any{
				"match_id": map[string]any{"type": "string"},
				"status":   map[string]any{"type": "string", "enum": []string{"available", "unavailable", "maybe"}},
			}, "match_id", "status"),
			Mutating: true,
			Invoke: func(ctx context.Context, call *Call) *Envelope {
				if call.User.PlayerID == "" {
					return Failf(errs.Denied, "Only registered players can set availability.")
				}
				matchID, ok := stringArg(call.Args, "match_id")
				if !ok {
					return Failf(errs.InvalidInput, "match_id is required.")
				}
				status, ok := stringArg(call.Args, "status")
				if !ok {
					return Failf(errs.InvalidInput, "status is required.")
				}

				err := svcs.Matches.SetAvailability(ctx, call.User.TeamID, call.User.PlayerID,
					matchID, domain.AvailabilityStatus(status))
				if err != nil {
					return Failure(err)
				}
				return Success(fmt.Sprintf("Marked you as %s for %s.", status, matchID), nil)
			},
		},
	}
}
