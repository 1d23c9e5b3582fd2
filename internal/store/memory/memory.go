// Package memory is an in-process store implementation with the same
// semantics as the mongodb backend: unique-constraint conflicts, compare-and-
// set invite redemption, and serialized transactions. Used by tests and the
// "memory" storage mode for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/store"
)

// Store holds every collection behind one mutex. Transactions take the same
// mutex for their whole body, which serializes them the way a document-level
// transaction would for our access patterns.
type Store struct {
	mu      sync.Mutex
	teams   map[string]*domain.Team               // team_id
	players map[string]map[string]*domain.Player  // team_id → player_id
	members map[string]map[string]*domain.Member  // team_id → member_id
	invites map[string]*domain.Invite             // invite_id
	matches map[string]map[string]*domain.Match   // team_id → match_id
	avail   map[string][]*domain.Availability     // team_id|match_id
	audit   []*store.AuditRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		teams:   make(map[string]*domain.Team),
		players: make(map[string]map[string]*domain.Player),
		members: make(map[string]map[string]*domain.Member),
		invites: make(map[string]*domain.Invite),
		matches: make(map[string]map[string]*domain.Match),
		avail:   make(map[string][]*domain.Availability),
	}
}

// Stores returns the repository bundle backed by this store.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Teams:   (*teamRepo)(s),
		Players: (*playerRepo)(s),
		Members: (*memberRepo)(s),
		Invites: (*inviteRepo)(s),
		Matches: (*matchRepo)(s),
		Audit:   (*auditRepo)(s),
		Tx:      (*txRunner)(s),
	}
}

type txKey struct{}

// lock acquires the store mutex unless the context already runs inside a
// transaction (which holds it for its whole body).
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// --- transactions ---

type txRunner Store

func (t *txRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s := (*Store)(t)
	if ctx.Value(txKey{}) != nil { // nested: join the outer transaction
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// --- teams ---

type teamRepo Store

func (r *teamRepo) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, errs.E(errs.NotFound, "team not found")
	}
	cp := *t
	return &cp, nil
}

func (r *teamRepo) List(ctx context.Context) ([]*domain.Team, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	out := make([]*domain.Team, 0, len(s.teams))
	for _, t := range s.teams {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (r *teamRepo) Put(ctx context.Context, team *domain.Team) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	cp := *team
	s.teams[team.TeamID] = &cp
	return nil
}

func (r *teamRepo) SetDisabled(ctx context.Context, teamID string, disabled bool) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	t, ok := s.teams[teamID]
	if !ok {
		return errs.E(errs.NotFound, "team not found")
	}
	t.Disabled = disabled
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// --- players ---

type playerRepo Store

func (r *playerRepo) Get(ctx context.Context, teamID, playerID string) (*domain.Player, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	p, ok := s.players[teamID][playerID]
	if !ok {
		return nil, errs.E(errs.NotFound, "player not found")
	}
	cp := *p
	return &cp, nil
}

func (r *playerRepo) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Player, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	for _, p := range s.players[teamID] {
		if p.TelegramID != nil && *p.TelegramID == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.E(errs.NotFound, "player not found")
}

func (r *playerRepo) GetByPhone(ctx context.Context, teamID, phone string) (*domain.Player, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	for _, p := range s.players[teamID] {
		if p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.E(errs.NotFound, "player not found")
}

func (r *playerRepo) List(ctx context.Context, teamID string) ([]*domain.Player, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	out := make([]*domain.Player, 0, len(s.players[teamID]))
	for _, p := range s.players[teamID] {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *playerRepo) Count(ctx context.Context, teamID string) (int, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	return len(s.players[teamID]), nil
}

func (r *playerRepo) Create(ctx context.Context, player *domain.Player) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.players[player.TeamID]
	if byID == nil {
		byID = make(map[string]*domain.Player)
		s.players[player.TeamID] = byID
	}
	if _, exists := byID[player.PlayerID]; exists {
		return errs.E(errs.Conflict, "player id already exists")
	}
	for _, p := range byID {
		if p.Phone == player.Phone {
			return errs.E(errs.Conflict, "a player with this phone number already exists")
		}
	}
	cp := *player
	byID[player.PlayerID] = &cp
	return nil
}

func (r *playerRepo) Update(ctx context.Context, player *domain.Player) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.players[player.TeamID]
	if _, ok := byID[player.PlayerID]; !ok {
		return errs.E(errs.NotFound, "player not found")
	}
	for id, p := range byID {
		if id != player.PlayerID && p.Phone == player.Phone {
			return errs.E(errs.Conflict, "a player with this phone number already exists")
		}
	}
	cp := *player
	byID[player.PlayerID] = &cp
	return nil
}

// --- members ---

type memberRepo Store

func (r *memberRepo) Get(ctx context.Context, teamID, memberID string) (*domain.Member, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	m, ok := s.members[teamID][memberID]
	if !ok {
		return nil, errs.E(errs.NotFound, "member not found")
	}
	cp := *m
	return &cp, nil
}

func (r *memberRepo) GetByTelegramID(ctx context.Context, teamID string, telegramID int64) (*domain.Member, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	for _, m := range s.members[teamID] {
		if m.TelegramID != nil && *m.TelegramID == telegramID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, errs.E(errs.NotFound, "member not found")
}

func (r *memberRepo) GetByPhone(ctx context.Context, teamID, phone string) (*domain.Member, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	for _, m := range s.members[teamID] {
		if m.Phone == phone {
			cp := *m
			return &cp, nil
		}
	}
	return nil, errs.E(errs.NotFound, "member not found")
}

func (r *memberRepo) List(ctx context.Context, teamID string) ([]*domain.Member, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	out := make([]*domain.Member, 0, len(s.members[teamID]))
	for _, m := range s.members[teamID] {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *memberRepo) Count(ctx context.Context, teamID string) (int, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	return len(s.members[teamID]), nil
}

func (r *memberRepo) CountAdmins(ctx context.Context, teamID string) (int, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	n := 0
	for _, m := range s.members[teamID] {
		if m.IsAdmin && m.Status == domain.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *memberRepo) Create(ctx context.Context, member *domain.Member) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.members[member.TeamID]
	if byID == nil {
		byID = make(map[string]*domain.Member)
		s.members[member.TeamID] = byID
	}
	if _, exists := byID[member.MemberID]; exists {
		return errs.E(errs.Conflict, "member id already exists")
	}
	for _, m := range byID {
		if m.Phone == member.Phone {
			return errs.E(errs.Conflict, "a member with this phone number already exists")
		}
	}
	cp := *member
	byID[member.MemberID] = &cp
	return nil
}

func (r *memberRepo) Update(ctx context.Context, member *domain.Member) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.members[member.TeamID]
	if _, ok := byID[member.MemberID]; !ok {
		return errs.E(errs.NotFound, "member not found")
	}
	for id, m := range byID {
		if id != member.MemberID && m.Phone == member.Phone {
			return errs.E(errs.Conflict, "a member with this phone number already exists")
		}
	}
	cp := *member
	byID[member.MemberID] = &cp
	return nil
}

// --- invites ---

type inviteRepo Store

func (r *inviteRepo) Get(ctx context.Context, inviteID string) (*domain.Invite, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	inv, ok := s.invites[inviteID]
	if !ok {
		return nil, errs.E(errs.NotFound, "invite not found")
	}
	cp := *inv
	return &cp, nil
}

func (r *inviteRepo) Create(ctx context.Context, invite *domain.Invite) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	if _, exists := s.invites[invite.InviteID]; exists {
		return errs.E(errs.Conflict, "invite id already exists")
	}
	cp := *invite
	s.invites[invite.InviteID] = &cp
	return nil
}

func (r *inviteRepo) MarkUsed(ctx context.Context, inviteID string, usedAt time.Time) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	inv, ok := s.invites[inviteID]
	if !ok {
		return errs.E(errs.NotFound, "invite not found")
	}
	if inv.UsedAt != nil {
		return errs.E(errs.InviteAlreadyUsed, errs.CannedMessage(errs.InviteAlreadyUsed))
	}
	ts := usedAt
	inv.UsedAt = &ts
	return nil
}

func (r *inviteRepo) ListPending(ctx context.Context, teamID string, now time.Time) ([]*domain.Invite, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	var out []*domain.Invite
	for _, inv := range s.invites {
		if inv.TeamID == teamID && inv.UsedAt == nil && !inv.Expired(now) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// --- matches ---

type matchRepo Store

func (r *matchRepo) Get(ctx context.Context, teamID, matchID string) (*domain.Match, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	m, ok := s.matches[teamID][matchID]
	if !ok {
		return nil, errs.E(errs.NotFound, "match not found")
	}
	cp := *m
	cp.Squad = append([]string(nil), m.Squad...)
	return &cp, nil
}

func (r *matchRepo) List(ctx context.Context, teamID string) ([]*domain.Match, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	out := make([]*domain.Match, 0, len(s.matches[teamID]))
	for _, m := range s.matches[teamID] {
		cp := *m
		cp.Squad = append([]string(nil), m.Squad...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })
	return out, nil
}

func (r *matchRepo) Count(ctx context.Context, teamID string) (int, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	return len(s.matches[teamID]), nil
}

func (r *matchRepo) Create(ctx context.Context, match *domain.Match) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.matches[match.TeamID]
	if byID == nil {
		byID = make(map[string]*domain.Match)
		s.matches[match.TeamID] = byID
	}
	if _, exists := byID[match.MatchID]; exists {
		return errs.E(errs.Conflict, "match id already exists")
	}
	cp := *match
	cp.Squad = append([]string(nil), match.Squad...)
	byID[match.MatchID] = &cp
	return nil
}

func (r *matchRepo) Update(ctx context.Context, match *domain.Match) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	byID := s.matches[match.TeamID]
	if _, ok := byID[match.MatchID]; !ok {
		return errs.E(errs.NotFound, "match not found")
	}
	cp := *match
	cp.Squad = append([]string(nil), match.Squad...)
	byID[match.MatchID] = &cp
	return nil
}

func (r *matchRepo) SetAvailability(ctx context.Context, av *domain.Availability) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	key := av.TeamID + "|" + av.MatchID
	for i, existing := range s.avail[key] {
		if existing.PlayerID == av.PlayerID {
			cp := *av
			s.avail[key][i] = &cp
			return nil
		}
	}
	cp := *av
	s.avail[key] = append(s.avail[key], &cp)
	return nil
}

func (r *matchRepo) ListAvailability(ctx context.Context, teamID, matchID string) ([]*domain.Availability, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()
	key := teamID + "|" + matchID
	out := make([]*domain.Availability, 0, len(s.avail[key]))
	for _, av := range s.avail[key] {
		cp := *av
		out = append(out, &cp)
	}
	return out, nil
}

// --- audit ---

type auditRepo Store

func (r *auditRepo) Record(ctx context.Context, rec *store.AuditRecord) error {
	s := (*Store)(r)
	defer s.lock(ctx)()
	cp := *rec
	s.audit = append(s.audit, &cp)
	return nil
}

// AuditLog returns a snapshot of recorded audit entries (test helper).
func (s *Store) AuditLog() []*store.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.AuditRecord, len(s.audit))
	copy(out, s.audit)
	return out
}
