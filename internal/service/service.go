// Package service implements the domain operations tools delegate to. Each
// service wraps the repositories, enforces entity invariants, and appends an
// audit record for every mutation. Tools never touch storage directly.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kickai-team/kickai/internal/store"
)

// Services bundles every domain service plus the stores they share.
type Services struct {
	Teams   *TeamService
	Players *PlayerService
	Members *MemberService
	Matches *MatchService
}

// New wires the services onto one store bundle.
func New(st *store.Stores, log *slog.Logger) *Services {
	base := &base{stores: st, log: log, now: time.Now}
	return &Services{
		Teams:   &TeamService{base},
		Players: &PlayerService{base},
		Members: &MemberService{base},
		Matches: &MatchService{base},
	}
}

type base struct {
	stores *store.Stores
	log    *slog.Logger
	now    func() time.Time
}

// audit appends a record for a completed mutation. Audit failures are logged
// and swallowed: the mutation already happened and must not be reported as
// failed because the trail write lagged.
func (b *base) audit(ctx context.Context, teamID, actor, action, subject, detail string) {
	rec := &store.AuditRecord{
		TeamID:    teamID,
		Actor:     actor,
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		Timestamp: b.now(),
	}
	if err := b.stores.Audit.Record(ctx, rec); err != nil {
		b.log.Warn("audit record dropped",
			slog.String("team_id", teamID),
			slog.String("action", action),
			slog.Any("error", err))
	}
}
