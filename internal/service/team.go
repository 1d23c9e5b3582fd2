package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// TeamService owns tenant records. Team provisioning is an operator action
// (admin CLI), never reachable from chat.
type TeamService struct {
	*base
}

var teamValidate = validator.New(validator.WithRequiredStructEnabled())

// Create provisions a team. TeamID must be unique; both chat ids and both bot
// tokens are required up front since a team without them cannot go live.
func (s *TeamService) Create(ctx context.Context, team *domain.Team) error {
	team.TeamID = strings.TrimSpace(team.TeamID)
	if err := teamValidate.Struct(team); err != nil {
		return errs.E(errs.InvalidInput, teamValidationMessage(err))
	}

	if _, err := s.stores.Teams.Get(ctx, team.TeamID); err == nil {
		return errs.E(errs.Conflict, "a team with this id already exists")
	} else if !errs.IsKind(err, errs.NotFound) {
		return err
	}

	now := s.now()
	team.CreatedAt = now
	team.UpdatedAt = now
	if err := s.stores.Teams.Put(ctx, team); err != nil {
		return err
	}
	s.audit(ctx, team.TeamID, "system", "team.create", team.TeamID, team.Name)
	return nil
}

func teamValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "nefield" {
			return "main and leadership chats must differ"
		}
		return fmt.Sprintf("%s is required", fe.Field())
	}
	return "invalid team record"
}

// Get returns a team by id.
func (s *TeamService) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	return s.stores.Teams.Get(ctx, teamID)
}

// List returns every provisioned team, disabled ones included.
func (s *TeamService) List(ctx context.Context) ([]*domain.Team, error) {
	return s.stores.Teams.List(ctx)
}

// SetDisabled flips the tenant kill switch. A disabled team stops receiving
// updates at the fleet level; its players and members are implicitly frozen.
func (s *TeamService) SetDisabled(ctx context.Context, teamID string, disabled bool) error {
	if err := s.stores.Teams.SetDisabled(ctx, teamID, disabled); err != nil {
		return err
	}
	action := "team.enable"
	if disabled {
		action = "team.disable"
	}
	s.audit(ctx, teamID, "system", action, teamID, "")
	return nil
}

// RotateBotToken replaces one of the team's bot credentials. The fleet picks
// the new token up on its next restart of that team's transport.
func (s *TeamService) RotateBotToken(ctx context.Context, teamID string, kind domain.ChatKind, token string) error {
	if strings.TrimSpace(token) == "" {
		return errs.E(errs.InvalidInput, "token is required")
	}
	if !kind.Valid() {
		return errs.E(errs.InvalidInput, "chat kind must be main or leadership")
	}

	team, err := s.stores.Teams.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if kind == domain.ChatLeadership {
		team.BotLeadershipToken = token
	} else {
		team.BotMainToken = token
	}
	team.UpdatedAt = s.now()
	if err := s.stores.Teams.Put(ctx, team); err != nil {
		return err
	}
	s.audit(ctx, teamID, "system", "team.rotate_token", teamID, string(kind))
	return nil
}
