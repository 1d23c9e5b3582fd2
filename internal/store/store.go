// Package store declares the repository interfaces that decouple the domain
// from the storage backend. Implementations live in store/mongodb (production)
// and store/memory (tests, dev mode).
//
// Repositories return errors classified via the errs taxonomy: NotFound for
// missing documents, Conflict for unique-constraint violations. Anything else
// wraps the backend error as DependencyUnavailable.
package store

import (
	"context"
	"time"

	"github.com/kickai-team/kickai/internal/domain"
)

// TxRunner executes fn inside one storage transaction. The context passed to
// fn carries the transaction; repository calls made with it join it. The
// invite redemption path depends on this for its single-winner guarantee.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TeamRepo persists teams.
type TeamRepo interface {
	Get(ctx context.Context, teamID string) (*domain.Team, error)
	List(ctx context.Context) ([]*domain.Team, error)
	Put(ctx context.Context, team *domain.Team) error
	SetDisabled(ctx context.Context, teamID string, disabled bool) error
}

// PlayerRepo persists players, scoped by team.
type PlayerRepo interface {
	Get(ctx context.Context, teamID, playerID string) (*domain.Player, error)
	GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Player, error)
	GetByPhone(ctx context.Context, teamID, phone string) (*domain.Player, error)
	List(ctx context.Context, teamID string) ([]*domain.Player, error)
	Count(ctx context.Context, teamID string) (int, error)
	Create(ctx context.Context, player *domain.Player) error
	Update(ctx context.Context, player *domain.Player) error
}

// MemberRepo persists team members.
type MemberRepo interface {
	Get(ctx context.Context, teamID, memberID string) (*domain.Member, error)
	GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Member, error)
	GetByPhone(ctx context.Context, teamID, phone string) (*domain.Member, error)
	List(ctx context.Context, teamID string) ([]*domain.Member, error)
	Count(ctx context.Context, teamID string) (int, error)
	CountAdmins(ctx context.Context, teamID string) (int, error)
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
}

// InviteRepo persists invites. MarkUsed is a compare-and-set on used_at:
// of N concurrent calls for the same invite, exactly one succeeds and the
// rest return an InviteAlreadyUsed error.
type InviteRepo interface {
	Get(ctx context.Context, inviteID string) (*domain.Invite, error)
	Create(ctx context.Context, invite *domain.Invite) error
	MarkUsed(ctx context.Context, inviteID string, usedAt time.Time) error
	ListPending(ctx context.Context, teamID string, now time.Time) ([]*domain.Invite, error)
}

// MatchRepo persists matches and per-match availability.
type MatchRepo interface {
	Get(ctx context.Context, teamID, matchID string) (*domain.Match, error)
	List(ctx context.Context, teamID string) ([]*domain.Match, error)
	Count(ctx context.Context, teamID string) (int, error)
	Create(ctx context.Context, match *domain.Match) error
	Update(ctx context.Context, match *domain.Match) error
	SetAvailability(ctx context.Context, av *domain.Availability) error
	ListAvailability(ctx context.Context, teamID, matchID string) ([]*domain.Availability, error)
}

// AuditRecord is one mutating action, retained for the admin CLI surface.
type AuditRecord struct {
	TeamID    string    `bson:"team_id" json:"team_id"`
	Actor     string    `bson:"actor" json:"actor"` // member_id/player_id or "system"
	Action    string    `bson:"action" json:"action"`
	Subject   string    `bson:"subject" json:"subject"`
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// AuditRepo is append-only.
type AuditRepo interface {
	Record(ctx context.Context, rec *AuditRecord) error
}

// Stores bundles all repositories plus the transaction runner.
type Stores struct {
	Teams   TeamRepo
	Players PlayerRepo
	Members MemberRepo
	Invites InviteRepo
	Matches MatchRepo
	Audit   AuditRepo
	Tx      TxRunner
}
