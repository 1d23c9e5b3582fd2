// Package invite issues and redeems single-use invite links, the only path
// from "added to the roster" to "active in a chat". Redemption is the one
// tool-like operation an unregistered sender may trigger.
package invite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store"
)

const defaultLinkBase = "https://kickai.app/join"

// Service issues and redeems invites.
type Service struct {
	stores   *store.Stores
	players  *service.PlayerService
	members  *service.MemberService
	secret   []byte
	ttl      time.Duration
	linkBase string
	log      *slog.Logger
	now      func() time.Time
}

// Config for the invite service.
type Config struct {
	Secret   []byte        // HMAC key for link signatures
	TTL      time.Duration // invite lifetime, default 72h
	LinkBase string        // public base URL embedded in links
}

func NewService(st *store.Stores, players *service.PlayerService, members *service.MemberService, cfg Config, log *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 72 * time.Hour
	}
	if cfg.LinkBase == "" {
		cfg.LinkBase = defaultLinkBase
	}
	return &Service{
		stores:   st,
		players:  players,
		members:  members,
		secret:   cfg.Secret,
		ttl:      cfg.TTL,
		linkBase: cfg.LinkBase,
		log:      log,
		now:      time.Now,
	}
}

// Issued is the result of issuing one invite.
type Issued struct {
	Invite *domain.Invite
	URL    string
}

// Issue creates an invite for a roster subject. Players are invited to the
// main chat, members to the leadership chat. The issuer must hold admin
// rights; callers enforce that before reaching here, and the record keeps the
// issuer id for audit.
func (s *Service) Issue(ctx context.Context, team *domain.Team, subject domain.SubjectKind, subjectID, issuerID string) (*Issued, error) {
	chatKind := domain.ChatMain
	if subject == domain.SubjectMember {
		chatKind = domain.ChatLeadership
	}

	now := s.now()
	inv := &domain.Invite{
		InviteID:    uuid.NewString(),
		TeamID:      team.TeamID,
		ChatKind:    chatKind,
		SubjectKind: subject,
		SubjectID:   subjectID,
		IssuerID:    issuerID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.stores.Invites.Create(ctx, inv); err != nil {
		return nil, err
	}

	url := buildURL(s.linkBase, s.secret, inv.InviteID, string(subject), team.ChatID(chatKind), team.TeamID)
	s.log.Info("invite issued",
		slog.String("team_id", team.TeamID),
		slog.String("invite_id", inv.InviteID),
		slog.String("subject", subjectID))
	return &Issued{Invite: inv, URL: url}, nil
}

// Redeemed is the result of a successful redemption.
type Redeemed struct {
	SubjectKind domain.SubjectKind
	Name        string
	SubjectID   string
}

// Redeem promotes the invite's subject to active and links the redeemer's
// Telegram account. The whole flow runs in one transaction around the
// compare-and-set on used_at, so of N concurrent redemptions exactly one
// succeeds and none leaves a half-activated record behind.
func (s *Service) Redeem(ctx context.Context, teamID string, chatKind domain.ChatKind, inviteID string, telegramID int64) (*Redeemed, error) {
	var out *Redeemed
	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.stores.Invites.Get(ctx, inviteID)
		if err != nil {
			return err
		}
		switch {
		case inv.TeamID != teamID:
			return errs.E(errs.NotFound, "This invite belongs to a different team.")
		case inv.ChatKind != chatKind:
			return errs.E(errs.Denied,
				fmt.Sprintf("This invite is for the %s chat.", inv.ChatKind))
		case inv.Used():
			return errs.E(errs.InviteAlreadyUsed, errs.CannedMessage(errs.InviteAlreadyUsed))
		case inv.Expired(s.now()):
			return errs.E(errs.InviteExpired, errs.CannedMessage(errs.InviteExpired))
		}

		// The CAS below is the single-winner gate; the checks above only
		// shape the error message for the common cases.
		if err := s.stores.Invites.MarkUsed(ctx, inviteID, s.now()); err != nil {
			return err
		}

		switch inv.SubjectKind {
		case domain.SubjectMember:
			m, err := s.members.Activate(ctx, teamID, inv.SubjectID, telegramID)
			if err != nil {
				return err
			}
			out = &Redeemed{SubjectKind: domain.SubjectMember, Name: m.Name, SubjectID: m.MemberID}
		default:
			p, err := s.players.Activate(ctx, teamID, inv.SubjectID, telegramID)
			if err != nil {
				return err
			}
			out = &Redeemed{SubjectKind: domain.SubjectPlayer, Name: p.Name, SubjectID: p.PlayerID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invite redeemed",
		slog.String("team_id", teamID),
		slog.String("invite_id", inviteID),
		slog.String("subject", out.SubjectID))
	return out, nil
}

// ExtractToken scans message text for an invite token. See token.go for the
// accepted forms.
func (s *Service) ExtractToken(text string) (string, bool) {
	return ExtractToken(s.secret, text)
}

// ListPending returns unexpired, unredeemed invites for the admin CLI.
func (s *Service) ListPending(ctx context.Context, teamID string) ([]*domain.Invite, error) {
	return s.stores.Invites.ListPending(ctx, teamID, s.now())
}
