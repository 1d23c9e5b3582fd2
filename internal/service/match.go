package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// MatchService owns fixtures, squad selection, and player availability.
type MatchService struct {
	*base
}

// Create schedules a match. The match id is derived from the creation ordinal
// inside the transaction, like player codes.
func (s *MatchService) Create(ctx context.Context, teamID, actor, opponent string, kickoff time.Time, venue string) (*domain.Match, error) {
	opponent = strings.TrimSpace(opponent)
	if opponent == "" {
		return nil, errs.E(errs.InvalidInput, "Opponent name is required.")
	}
	if kickoff.Before(s.now()) {
		return nil, errs.E(errs.InvalidInput, "Kickoff must be in the future.")
	}

	var match *domain.Match
	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		count, err := s.stores.Matches.Count(ctx, teamID)
		if err != nil {
			return err
		}
		now := s.now()
		match = &domain.Match{
			TeamID:    teamID,
			MatchID:   domain.MatchCode(count + 1),
			Opponent:  opponent,
			KickoffAt: kickoff,
			Venue:     strings.TrimSpace(venue),
			Status:    domain.MatchScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.stores.Matches.Create(ctx, match)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, teamID, actor, "match.create", match.MatchID, opponent)
	return match, nil
}

// Get returns a match by id.
func (s *MatchService) Get(ctx context.Context, teamID, matchID string) (*domain.Match, error) {
	return s.stores.Matches.Get(ctx, teamID, matchID)
}

// ListUpcoming returns matches that have not been played or cancelled,
// soonest kickoff first.
func (s *MatchService) ListUpcoming(ctx context.Context, teamID string) ([]*domain.Match, error) {
	matches, err := s.stores.Matches.List(ctx, teamID)
	if err != nil {
		return nil, err
	}
	upcoming := matches[:0]
	for _, m := range matches {
		if m.Status == domain.MatchScheduled || m.Status == domain.MatchSquadSelected {
			upcoming = append(upcoming, m)
		}
	}
	return upcoming, nil
}

// SelectSquad records the squad for a match. Every player id must refer to an
// active player; partial squads are rejected wholesale so a typo cannot
// silently shrink the lineup.
func (s *MatchService) SelectSquad(ctx context.Context, teamID, actor, matchID string, playerIDs []string) (*domain.Match, error) {
	if len(playerIDs) == 0 {
		return nil, errs.E(errs.InvalidInput, "Select at least one player.")
	}

	var match *domain.Match
	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		match, err = s.stores.Matches.Get(ctx, teamID, matchID)
		if err != nil {
			return err
		}
		if match.Status == domain.MatchPlayed || match.Status == domain.MatchCancelled {
			return errs.E(errs.InvalidInput,
				fmt.Sprintf("Match %s is %s; its squad can no longer change.", matchID, match.Status))
		}

		seen := make(map[string]bool, len(playerIDs))
		squad := make([]string, 0, len(playerIDs))
		for _, id := range playerIDs {
			id = strings.ToUpper(strings.TrimSpace(id))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			player, err := s.stores.Players.Get(ctx, teamID, id)
			if err != nil {
				if errs.IsKind(err, errs.NotFound) {
					return errs.E(errs.NotFound, fmt.Sprintf("No player with id %s on this team.", id))
				}
				return err
			}
			if player.Status != domain.StatusActive {
				return errs.E(errs.InvalidInput,
					fmt.Sprintf("%s (%s) is not active and cannot be selected.", player.Name, id))
			}
			squad = append(squad, id)
		}
		sort.Strings(squad)

		match.Squad = squad
		match.Status = domain.MatchSquadSelected
		match.UpdatedAt = s.now()
		return s.stores.Matches.Update(ctx, match)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, teamID, actor, "match.select_squad", matchID, strings.Join(match.Squad, ","))
	return match, nil
}

// SetAvailability records one player's availability for a match. Upsert
// semantics: repeating the same answer is a no-op.
func (s *MatchService) SetAvailability(ctx context.Context, teamID, playerID, matchID string, status domain.AvailabilityStatus) error {
	switch status {
	case domain.Available, domain.Unavailable, domain.Maybe:
	default:
		return errs.E(errs.InvalidInput, "Availability must be available, unavailable, or maybe.")
	}
	if _, err := s.stores.Matches.Get(ctx, teamID, matchID); err != nil {
		return err
	}

	return s.stores.Matches.SetAvailability(ctx, &domain.Availability{
		TeamID:    teamID,
		MatchID:   matchID,
		PlayerID:  playerID,
		Status:    status,
		UpdatedAt: s.now(),
	})
}

// AvailablePlayers returns the active players who declared themselves
// available for a match.
func (s *MatchService) AvailablePlayers(ctx context.Context, teamID, matchID string) ([]*domain.Player, error) {
	if _, err := s.stores.Matches.Get(ctx, teamID, matchID); err != nil {
		return nil, err
	}
	avail, err := s.stores.Matches.ListAvailability(ctx, teamID, matchID)
	if err != nil {
		return nil, err
	}

	var players []*domain.Player
	for _, a := range avail {
		if a.Status != domain.Available {
			continue
		}
		p, err := s.stores.Players.Get(ctx, teamID, a.PlayerID)
		if err != nil {
			if errs.IsKind(err, errs.NotFound) {
				continue
			}
			return nil, err
		}
		if p.Status == domain.StatusActive {
			players = append(players, p)
		}
	}
	return players, nil
}
