// Package auth resolves the sender of an update into a UserContext and
// answers permission questions about it. Classification is chat-dependent:
// the same person is a player in the main chat and a leader or admin in the
// leadership chat.
package auth

import (
	"context"
	"fmt"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
)

// UserContext is the transient identity of one update's sender. Constructed
// per update, never persisted.
type UserContext struct {
	TelegramID int64
	Username   string
	Name       string
	TeamID     string
	ChatKind   domain.ChatKind
	Class      domain.Classification
	PlayerID   string // set when the sender resolves to a player
	MemberID   string // set when the sender resolves to a member
}

// Registered reports whether the sender resolved to any roster record.
func (u *UserContext) Registered() bool {
	return u.Class != domain.ClassUnregistered
}

// Resolver builds UserContexts from the roster.
type Resolver struct {
	players *service.PlayerService
	members *service.MemberService
}

func NewResolver(players *service.PlayerService, members *service.MemberService) *Resolver {
	return &Resolver{players: players, members: members}
}

// Resolve classifies the sender for the given team and chat.
//
// Main chat: a player record wins; a member without a player record still
// counts as registered (member tier). Leadership chat: a member record wins
// and maps to leader or admin; a player without membership keeps the player
// tier, which grants no leadership commands there.
func (r *Resolver) Resolve(ctx context.Context, teamID string, kind domain.ChatKind, telegramID int64, username, name string) (*UserContext, error) {
	uc := &UserContext{
		TelegramID: telegramID,
		Username:   username,
		Name:       name,
		TeamID:     teamID,
		ChatKind:   kind,
		Class:      domain.ClassUnregistered,
	}

	player, err := r.players.GetByTelegramID(ctx, teamID, telegramID)
	if err != nil && !errs.IsKind(err, errs.NotFound) {
		return nil, err
	}
	member, err := r.members.GetByTelegramID(ctx, teamID, telegramID)
	if err != nil && !errs.IsKind(err, errs.NotFound) {
		return nil, err
	}
	if player != nil && player.Status != domain.StatusInactive {
		uc.PlayerID = player.PlayerID
	}
	if member != nil && member.Status != domain.StatusInactive {
		uc.MemberID = member.MemberID
	}

	switch kind {
	case domain.ChatLeadership:
		switch {
		case uc.MemberID != "" && member.IsAdmin:
			uc.Class = domain.ClassAdmin
		case uc.MemberID != "":
			uc.Class = domain.ClassLeader
		case uc.PlayerID != "":
			uc.Class = domain.ClassPlayer
		}
	default:
		switch {
		case uc.PlayerID != "":
			uc.Class = domain.ClassPlayer
		case uc.MemberID != "":
			uc.Class = domain.ClassMember
		}
	}
	return uc, nil
}

// CheckCommand verifies both gates for a command: chat scope first, then
// permission tier. Violations come back as Denied errors with a message that
// names what was wrong; they are expected outcomes, not failures.
func CheckCommand(uc *UserContext, name string, scope domain.ChatScope, perm domain.Permission) error {
	if !scope.Admits(uc.ChatKind) {
		other := domain.ChatMain
		if scope == domain.ScopeLeadershipOnly {
			other = domain.ChatLeadership
		}
		return errs.E(errs.Denied,
			fmt.Sprintf("%s can only be used in the %s chat.", name, other))
	}
	return CheckPermission(uc, perm)
}

// CheckPermission verifies the sender's tier against a required permission.
func CheckPermission(uc *UserContext, perm domain.Permission) error {
	switch perm {
	case domain.PermPublic:
		return nil
	case domain.PermPlayer:
		if uc.Registered() {
			return nil
		}
		return errs.E(errs.Denied, "You need to be registered with this team first. Ask a team admin for an invite link.")
	case domain.PermLeader:
		if uc.ChatKind == domain.ChatLeadership &&
			(uc.Class == domain.ClassLeader || uc.Class == domain.ClassAdmin) {
			return nil
		}
		return errs.E(errs.Denied, "This action is for team leadership, in the leadership chat.")
	case domain.PermAdmin:
		if uc.ChatKind == domain.ChatLeadership && uc.Class == domain.ClassAdmin {
			return nil
		}
		return errs.E(errs.Denied, "This action needs admin rights, in the leadership chat.")
	default:
		return errs.E(errs.SystemCritical, errs.CannedMessage(errs.SystemCritical))
	}
}
