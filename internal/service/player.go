package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// PlayerService owns the player lifecycle: created pending by an admin,
// activated by invite redemption, deactivated by admin action. Players are
// never deleted.
type PlayerService struct {
	*base
}

// Create adds a pending player. The player id is derived from the creation
// ordinal inside the transaction so two concurrent adds cannot share a code.
// Returns Conflict if the phone is already registered on the team.
func (s *PlayerService) Create(ctx context.Context, teamID, actor, name, phone string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.E(errs.InvalidInput, "Player name is required.")
	}
	normPhone, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	var player *domain.Player
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if existing, err := s.stores.Players.GetByPhone(ctx, teamID, normPhone); err == nil {
			return errs.E(errs.Conflict,
				fmt.Sprintf("A player with this phone number already exists (%s).", existing.PlayerID))
		} else if !errs.IsKind(err, errs.NotFound) {
			return err
		}

		count, err := s.stores.Players.Count(ctx, teamID)
		if err != nil {
			return err
		}
		now := s.now()
		player = &domain.Player{
			TeamID:    teamID,
			PlayerID:  domain.PlayerCode(count+1, name),
			Name:      name,
			Phone:     normPhone,
			Position:  domain.PositionUtility,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.stores.Players.Create(ctx, player)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, teamID, actor, "player.create", player.PlayerID, player.Name)
	return player, nil
}

// Activate links a Telegram account to a pending player and flips the status
// to active. Called from invite redemption inside the redemption transaction.
// The telegram id must be unused across players and members on the team.
func (s *PlayerService) Activate(ctx context.Context, teamID, playerID string, telegramID int64) (*domain.Player, error) {
	player, err := s.stores.Players.Get(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}
	if player.Status == domain.StatusActive {
		return player, nil
	}

	if err := s.ensureTelegramIDFree(ctx, teamID, telegramID); err != nil {
		return nil, err
	}

	player.TelegramID = &telegramID
	player.Status = domain.StatusActive
	player.UpdatedAt = s.now()
	if err := s.stores.Players.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Approve confirms a pending player who has already linked Telegram. A player
// who never redeemed an invite cannot be approved: active implies a linked
// Telegram account.
func (s *PlayerService) Approve(ctx context.Context, teamID, actor, playerID string) (*domain.Player, error) {
	player, err := s.stores.Players.Get(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}
	switch {
	case player.Status == domain.StatusActive:
		return player, nil
	case player.TelegramID == nil:
		return nil, errs.E(errs.InvalidInput,
			fmt.Sprintf("%s has not joined via their invite link yet.", player.Name))
	}

	player.Status = domain.StatusActive
	player.UpdatedAt = s.now()
	if err := s.stores.Players.Update(ctx, player); err != nil {
		return nil, err
	}
	s.audit(ctx, teamID, actor, "player.approve", playerID, "")
	return player, nil
}

// Deactivate marks a player inactive. Idempotent.
func (s *PlayerService) Deactivate(ctx context.Context, teamID, actor, playerID string) error {
	player, err := s.stores.Players.Get(ctx, teamID, playerID)
	if err != nil {
		return err
	}
	if player.Status == domain.StatusInactive {
		return nil
	}
	player.Status = domain.StatusInactive
	player.UpdatedAt = s.now()
	if err := s.stores.Players.Update(ctx, player); err != nil {
		return err
	}
	s.audit(ctx, teamID, actor, "player.deactivate", playerID, "")
	return nil
}

// PlayerUpdatableFields are the fields UpdateField accepts.
var PlayerUpdatableFields = []string{"phone", "email", "position", "emergency_contact"}

// UpdateField sets one updatable field on a player. Setting a field to the
// value it already holds is a no-op and is still reported as success.
func (s *PlayerService) UpdateField(ctx context.Context, teamID, actor, playerID, field, value string) (*domain.Player, error) {
	player, err := s.stores.Players.Get(ctx, teamID, playerID)
	if err != nil {
		return nil, err
	}

	value = strings.TrimSpace(value)
	changed := false
	switch strings.ToLower(field) {
	case "phone":
		norm, err := domain.NormalizePhone(value)
		if err != nil {
			return nil, err
		}
		changed = player.Phone != norm
		player.Phone = norm
	case "email":
		if !strings.Contains(value, "@") {
			return nil, errs.E(errs.InvalidInput, "That doesn't look like an email address.")
		}
		changed = player.Email != value
		player.Email = value
	case "position":
		pos, ok := domain.ParsePosition(strings.ToLower(value))
		if !ok {
			return nil, errs.E(errs.InvalidInput,
				fmt.Sprintf("Unknown position %q. Valid positions: %s.", value, joinPositions()))
		}
		changed = player.Position != pos
		player.Position = pos
	case "emergency_contact":
		changed = player.EmergencyContact != value
		player.EmergencyContact = value
	default:
		return nil, errs.E(errs.InvalidInput,
			fmt.Sprintf("Field %q cannot be updated. Updatable fields: %s.", field, strings.Join(PlayerUpdatableFields, ", ")))
	}

	if !changed {
		return player, nil
	}
	player.UpdatedAt = s.now()
	if err := s.stores.Players.Update(ctx, player); err != nil {
		return nil, err
	}
	s.audit(ctx, teamID, actor, "player.update", playerID, field)
	return player, nil
}

// Get returns a player by id.
func (s *PlayerService) Get(ctx context.Context, teamID, playerID string) (*domain.Player, error) {
	return s.stores.Players.Get(ctx, teamID, playerID)
}

// GetByTelegramID resolves a player from a Telegram account.
func (s *PlayerService) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Player, error) {
	return s.stores.Players.GetByTelegramID(ctx, teamID, telegramID)
}

// List returns all players on the team, every status included.
func (s *PlayerService) List(ctx context.Context, teamID string) ([]*domain.Player, error) {
	return s.stores.Players.List(ctx, teamID)
}

// ListActive returns only active players.
func (s *PlayerService) ListActive(ctx context.Context, teamID string) ([]*domain.Player, error) {
	players, err := s.stores.Players.List(ctx, teamID)
	if err != nil {
		return nil, err
	}
	active := players[:0]
	for _, p := range players {
		if p.Status == domain.StatusActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// ensureTelegramIDFree enforces telegram id uniqueness across players and
// members of one team.
func (s *base) ensureTelegramIDFree(ctx context.Context, teamID string, telegramID int64) error {
	if _, err := s.stores.Players.GetByTelegramID(ctx, teamID, telegramID); err == nil {
		return errs.E(errs.Conflict, "This Telegram account is already linked to a player on this team.")
	} else if !errs.IsKind(err, errs.NotFound) {
		return err
	}
	if _, err := s.stores.Members.GetByTelegramID(ctx, teamID, telegramID); err == nil {
		return errs.E(errs.Conflict, "This Telegram account is already linked to a team member.")
	} else if !errs.IsKind(err, errs.NotFound) {
		return err
	}
	return nil
}

func joinPositions() string {
	pos := domain.Positions()
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}
