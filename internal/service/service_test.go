package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/store/memory"
)

func newTestServices(t *testing.T) (*Services, *memory.Store) {
	t.Helper()
	mem := memory.New()
	st := mem.Stores()
	return New(&st, slog.New(slog.DiscardHandler)), mem
}

func TestPlayerCreateAssignsOrdinalCode(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	p1, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p1.PlayerID != "01MS" {
		t.Errorf("player id = %q, want 01MS", p1.PlayerID)
	}
	if p1.Status != domain.StatusPending {
		t.Errorf("status = %q, want pending", p1.Status)
	}

	p2, err := svcs.Players.Create(ctx, "T1", "M01C", "John Smith", "+447111222334")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if p2.PlayerID != "02JS" {
		t.Errorf("second player id = %q, want 02JS", p2.PlayerID)
	}
}

func TestPlayerCreateDuplicatePhone(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	if _, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svcs.Players.Create(ctx, "T1", "M01C", "Other Guy", "+44 7111 222333")
	if !errs.IsKind(err, errs.Conflict) {
		t.Fatalf("duplicate phone err = %v, want Conflict", err)
	}
}

func TestPlayerCreateRejectsBadPhone(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svcs.Players.Create(ctx, "T1", "M01C", "Local Lad", "07111222333")
	if !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("national-format phone err = %v, want InvalidInput", err)
	}
	players, err := svcs.Players.List(ctx, "T1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(players) != 0 {
		t.Errorf("rejected create persisted %d players", len(players))
	}
}

func TestPlayerActivateAndApprove(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	p, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Approving before the invite was redeemed is rejected: active implies
	// a linked telegram account.
	if _, err := svcs.Players.Approve(ctx, "T1", "M01C", p.PlayerID); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("approve before activation err = %v, want InvalidInput", err)
	}

	act, err := svcs.Players.Activate(ctx, "T1", p.PlayerID, 555)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if act.Status != domain.StatusActive || act.TelegramID == nil || *act.TelegramID != 555 {
		t.Fatalf("after activate: status=%s telegram=%v", act.Status, act.TelegramID)
	}

	// Activate is idempotent once active.
	again, err := svcs.Players.Activate(ctx, "T1", p.PlayerID, 555)
	if err != nil || again.Status != domain.StatusActive {
		t.Fatalf("re-activate: %v, status=%s", err, again.Status)
	}
}

func TestTelegramIDUniqueAcrossPlayersAndMembers(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	m, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 900, "Coach", "+447000000001", "Coach")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if !m.IsAdmin || m.Status != domain.StatusActive {
		t.Fatalf("first admin = %+v", m)
	}

	p, err := svcs.Players.Create(ctx, "T1", m.MemberID, "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	// The admin's telegram account cannot also become a player account.
	if _, err := svcs.Players.Activate(ctx, "T1", p.PlayerID, 900); !errs.IsKind(err, errs.Conflict) {
		t.Fatalf("activate with taken telegram id err = %v, want Conflict", err)
	}
}

func TestRegisterFirstAdminClosesAfterBootstrap(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	if _, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 900, "Coach", "+447000000001", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 901, "Late Arrival", "+447000000002", "")
	if !errs.IsKind(err, errs.Denied) {
		t.Fatalf("second register err = %v, want Denied", err)
	}
}

func TestPlayerUpdateFieldIdempotent(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	p, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	upd, err := svcs.Players.UpdateField(ctx, "T1", p.PlayerID, p.PlayerID, "position", "goalkeeper")
	if err != nil {
		t.Fatalf("update position: %v", err)
	}
	if upd.Position != domain.PositionGoalkeeper {
		t.Errorf("position = %q", upd.Position)
	}
	first := upd.UpdatedAt

	// Second identical update is a no-op: UpdatedAt does not move.
	upd2, err := svcs.Players.UpdateField(ctx, "T1", p.PlayerID, p.PlayerID, "position", "goalkeeper")
	if err != nil {
		t.Fatalf("repeat update: %v", err)
	}
	if !upd2.UpdatedAt.Equal(first) {
		t.Error("repeated identical update modified the record")
	}

	if _, err := svcs.Players.UpdateField(ctx, "T1", p.PlayerID, p.PlayerID, "name", "Someone"); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("update of locked field err = %v, want InvalidInput", err)
	}
	if _, err := svcs.Players.UpdateField(ctx, "T1", p.PlayerID, p.PlayerID, "position", "libero"); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("bad position err = %v, want InvalidInput", err)
	}
}

func TestLastAdminCannotBeDemoted(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	m, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 900, "Coach", "+447000000001", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svcs.Members.SetAdmin(ctx, "T1", m.MemberID, m.MemberID, false); !errs.IsKind(err, errs.Denied) {
		t.Fatalf("demote last admin err = %v, want Denied", err)
	}
}

func TestMatchLifecycle(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()
	kickoff := time.Now().Add(72 * time.Hour)

	match, err := svcs.Matches.Create(ctx, "T1", "M01C", "Rovers", kickoff, "Victoria Park")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if match.MatchID != "M01" || match.Status != domain.MatchScheduled {
		t.Fatalf("match = %+v", match)
	}

	if _, err := svcs.Matches.Create(ctx, "T1", "M01C", "United", time.Now().Add(-time.Hour), ""); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("past kickoff err = %v, want InvalidInput", err)
	}

	p, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	// Pending players cannot be selected.
	if _, err := svcs.Matches.SelectSquad(ctx, "T1", "M01C", match.MatchID, []string{p.PlayerID}); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("select pending player err = %v, want InvalidInput", err)
	}

	if _, err := svcs.Players.Activate(ctx, "T1", p.PlayerID, 555); err != nil {
		t.Fatalf("activate: %v", err)
	}
	sel, err := svcs.Matches.SelectSquad(ctx, "T1", "M01C", match.MatchID, []string{p.PlayerID})
	if err != nil {
		t.Fatalf("select squad: %v", err)
	}
	if sel.Status != domain.MatchSquadSelected || len(sel.Squad) != 1 {
		t.Fatalf("after selection: %+v", sel)
	}

	if err := svcs.Matches.SetAvailability(ctx, "T1", p.PlayerID, match.MatchID, domain.Available); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	avail, err := svcs.Matches.AvailablePlayers(ctx, "T1", match.MatchID)
	if err != nil {
		t.Fatalf("available players: %v", err)
	}
	if len(avail) != 1 || avail[0].PlayerID != p.PlayerID {
		t.Fatalf("available = %+v", avail)
	}
}

func TestTeamCreateValidation(t *testing.T) {
	svcs, _ := newTestServices(t)
	ctx := context.Background()

	team := &domain.Team{
		TeamID:             "T1",
		Name:               "Sunday FC",
		MainChatID:         "-100",
		LeadershipChatID:   "-200",
		BotMainToken:       "tok-main",
		BotLeadershipToken: "tok-lead",
	}
	if err := svcs.Teams.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := svcs.Teams.Create(ctx, team); !errs.IsKind(err, errs.Conflict) {
		t.Fatalf("duplicate team err = %v, want Conflict", err)
	}

	bad := *team
	bad.TeamID = "T2"
	bad.LeadershipChatID = bad.MainChatID
	if err := svcs.Teams.Create(ctx, &bad); !errs.IsKind(err, errs.InvalidInput) {
		t.Fatalf("same-chat team err = %v, want InvalidInput", err)
	}
}

func TestAuditTrail(t *testing.T) {
	svcs, mem := newTestServices(t)
	ctx := context.Background()

	if _, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333"); err != nil {
		t.Fatalf("create: %v", err)
	}
	log := mem.AuditLog()
	if len(log) != 1 || log[0].Action != "player.create" || log[0].Actor != "M01C" {
		t.Fatalf("audit log = %+v", log)
	}
}
