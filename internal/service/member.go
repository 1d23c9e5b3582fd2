package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
)

// MemberService owns team staff records. Members follow the same pending →
// active lifecycle as players, with one extra path: the first member of a
// team self-registers via /register and becomes the bootstrap admin.
type MemberService struct {
	*base
}

// Create adds a pending member. Mirrors PlayerService.Create.
func (s *MemberService) Create(ctx context.Context, teamID, actor, name, phone, role string) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.E(errs.InvalidInput, "Member name is required.")
	}
	normPhone, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = "member"
	}

	var member *domain.Member
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if existing, err := s.stores.Members.GetByPhone(ctx, teamID, normPhone); err == nil {
			return errs.E(errs.Conflict,
				fmt.Sprintf("A member with this phone number already exists (%s).", existing.MemberID))
		} else if !errs.IsKind(err, errs.NotFound) {
			return err
		}

		count, err := s.stores.Members.Count(ctx, teamID)
		if err != nil {
			return err
		}
		now := s.now()
		member = &domain.Member{
			TeamID:    teamID,
			MemberID:  domain.MemberCode(count+1, name),
			Name:      name,
			Phone:     normPhone,
			Role:      role,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.stores.Members.Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, teamID, actor, "member.create", member.MemberID, member.Role)
	return member, nil
}

// RegisterFirstAdmin handles the bootstrap path: a leadership chat with zero
// members accepts /register from anyone and makes them the founding admin,
// active immediately since the Telegram account is already in hand. Once any
// member exists the path is closed for good.
func (s *MemberService) RegisterFirstAdmin(ctx context.Context, teamID string, telegramID int64, name, phone, role string) (*domain.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.E(errs.InvalidInput, "Your name is required.")
	}
	normPhone, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = "Team Manager"
	}

	var member *domain.Member
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		count, err := s.stores.Members.Count(ctx, teamID)
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.E(errs.Denied, "This team already has members. Ask an admin to add you with /addmember.")
		}

		now := s.now()
		member = &domain.Member{
			TeamID:     teamID,
			MemberID:   domain.MemberCode(1, name),
			TelegramID: &telegramID,
			Name:       name,
			Phone:      normPhone,
			Role:       role,
			IsAdmin:    true,
			Status:     domain.StatusActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.stores.Members.Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, teamID, member.MemberID, "member.register_first_admin", member.MemberID, member.Role)
	return member, nil
}

// Activate links a Telegram account to a pending member. Called from invite
// redemption.
func (s *MemberService) Activate(ctx context.Context, teamID, memberID string, telegramID int64) (*domain.Member, error) {
	member, err := s.stores.Members.Get(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status == domain.StatusActive {
		return member, nil
	}

	if err := s.ensureTelegramIDFree(ctx, teamID, telegramID); err != nil {
		return nil, err
	}

	member.TelegramID = &telegramID
	member.Status = domain.StatusActive
	member.UpdatedAt = s.now()
	if err := s.stores.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// MemberUpdatableFields are the fields UpdateField accepts for members.
var MemberUpdatableFields = []string{"phone", "email", "role", "emergency_contact"}

// UpdateField sets one updatable field on a member.
func (s *MemberService) UpdateField(ctx context.Context, teamID, actor, memberID, field, value string) (*domain.Member, error) {
	member, err := s.stores.Members.Get(ctx, teamID, memberID)
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
		changed = member.Phone != norm
		member.Phone = norm
	case "email":
		if !strings.Contains(value, "@") {
			return nil, errs.E(errs.InvalidInput, "That doesn't look like an email address.")
		}
		changed = member.Email != value
		member.Email = value
	case "role":
		if value == "" {
			return nil, errs.E(errs.InvalidInput, "Role cannot be empty.")
		}
		changed = member.Role != value
		member.Role = value
	default:
		return nil, errs.E(errs.InvalidInput,
			fmt.Sprintf("Field %q cannot be updated. Updatable fields: %s.", field, strings.Join(MemberUpdatableFields, ", ")))
	}

	if !changed {
		return member, nil
	}
	member.UpdatedAt = s.now()
	if err := s.stores.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	s.audit(ctx, teamID, actor, "member.update", memberID, field)
	return member, nil
}

// SetAdmin grants or revokes admin rights. Revoking the last active admin is
// rejected: every bootstrapped team keeps at least one admin.
func (s *MemberService) SetAdmin(ctx context.Context, teamID, actor, memberID string, isAdmin bool) (*domain.Member, error) {
	var member *domain.Member
	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		member, err = s.stores.Members.Get(ctx, teamID, memberID)
		if err != nil {
			return err
		}
		if member.IsAdmin == isAdmin {
			return nil
		}
		if !isAdmin {
			admins, err := s.stores.Members.CountAdmins(ctx, teamID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return errs.E(errs.Denied, "Cannot remove the last admin of the team.")
			}
		}
		member.IsAdmin = isAdmin
		member.UpdatedAt = s.now()
		return s.stores.Members.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, teamID, actor, "member.set_admin", memberID, fmt.Sprintf("is_admin=%t", isAdmin))
	return member, nil
}

// Get returns a member by id.
func (s *MemberService) Get(ctx context.Context, teamID, memberID string) (*domain.Member, error) {
	return s.stores.Members.Get(ctx, teamID, memberID)
}

// GetByTelegramID resolves a member from a Telegram account.
func (s *MemberService) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Member, error) {
	return s.stores.Members.GetByTelegramID(ctx, teamID, telegramID)
}

// List returns all members on the team.
func (s *MemberService) List(ctx context.Context, teamID string) ([]*domain.Member, error) {
	return s.stores.Members.List(ctx, teamID)
}

// Count returns the number of members, used by the bootstrap guard.
func (s *MemberService) Count(ctx context.Context, teamID string) (int, error) {
	return s.stores.Members.Count(ctx, teamID)
}
