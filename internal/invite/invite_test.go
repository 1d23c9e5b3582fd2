package invite

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) (*Service, *service.Services, *domain.Team) {
	t.Helper()
	mem := memory.New()
	st := mem.Stores()
	log := slog.New(slog.DiscardHandler)
	svcs := service.New(&st, log)

	team := &domain.Team{
		TeamID:             "T1",
		Name:               "Sunday FC",
		MainChatID:         "-100",
		LeadershipChatID:   "-200",
		BotMainToken:       "tok-main",
		BotLeadershipToken: "tok-lead",
	}
	if err := svcs.Teams.Create(context.Background(), team); err != nil {
		t.Fatalf("create team: %v", err)
	}

	inv := NewService(&st, svcs.Players, svcs.Members, Config{Secret: testSecret, TTL: 72 * time.Hour}, log)
	return inv, svcs, team
}

func TestIssueBuildsSignedLink(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p, err := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	issued, err := inv.Issue(ctx, team, domain.SubjectPlayer, p.PlayerID, "M01C")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, want := range []string{"type=player", "chat=-100", "team=T1", "invite=" + issued.Invite.InviteID} {
		if !strings.Contains(issued.URL, want) {
			t.Errorf("url %q missing %q", issued.URL, want)
		}
	}

	id, ok := ExtractToken(testSecret, "hello "+issued.URL+" bye")
	if !ok || id != issued.Invite.InviteID {
		t.Fatalf("ExtractToken = %q, %v", id, ok)
	}

	// Tampering with the team parameter invalidates the signature.
	tampered := strings.Replace(issued.URL, "team=T1", "team=T2", 1)
	if _, ok := ExtractToken(testSecret, tampered); ok {
		t.Error("tampered link accepted")
	}
}

func TestRedeemActivatesPlayer(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p, _ := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	issued, err := inv.Issue(ctx, team, domain.SubjectPlayer, p.PlayerID, "M01C")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	red, err := inv.Redeem(ctx, "T1", domain.ChatMain, issued.Invite.InviteID, 555)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if red.SubjectID != p.PlayerID || red.Name != "Mohamed Salah" {
		t.Fatalf("redeemed = %+v", red)
	}

	got, _ := svcs.Players.Get(ctx, "T1", p.PlayerID)
	if got.Status != domain.StatusActive || got.TelegramID == nil || *got.TelegramID != 555 {
		t.Fatalf("player after redeem = %+v", got)
	}

	// Second redemption does not alter state.
	_, err = inv.Redeem(ctx, "T1", domain.ChatMain, issued.Invite.InviteID, 556)
	if !errs.IsKind(err, errs.InviteAlreadyUsed) {
		t.Fatalf("second redeem err = %v, want InviteAlreadyUsed", err)
	}
	got, _ = svcs.Players.Get(ctx, "T1", p.PlayerID)
	if *got.TelegramID != 555 {
		t.Error("second redemption altered the player record")
	}
}

func TestRedeemWrongChatKind(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p, _ := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	issued, _ := inv.Issue(ctx, team, domain.SubjectPlayer, p.PlayerID, "M01C")

	_, err := inv.Redeem(ctx, "T1", domain.ChatLeadership, issued.Invite.InviteID, 555)
	if !errs.IsKind(err, errs.Denied) {
		t.Fatalf("wrong-chat redeem err = %v, want Denied", err)
	}
}

func TestRedeemExpired(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p, _ := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	issued, _ := inv.Issue(ctx, team, domain.SubjectPlayer, p.PlayerID, "M01C")

	inv.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	_, err := inv.Redeem(ctx, "T1", domain.ChatMain, issued.Invite.InviteID, 555)
	if !errs.IsKind(err, errs.InviteExpired) {
		t.Fatalf("expired redeem err = %v, want InviteExpired", err)
	}

	got, _ := svcs.Players.Get(ctx, "T1", p.PlayerID)
	if got.Status != domain.StatusPending {
		t.Error("expired redemption changed player status")
	}
}

// TestConcurrentRedemptionSingleWinner drives N goroutines at one invite.
// Exactly one wins; the rest see InviteAlreadyUsed.
func TestConcurrentRedemptionSingleWinner(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p, _ := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	issued, _ := inv.Issue(ctx, team, domain.SubjectPlayer, p.PlayerID, "M01C")

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = inv.Redeem(ctx, "T1", domain.ChatMain, issued.Invite.InviteID, int64(1000+i))
		}(i)
	}
	wg.Wait()

	wins, alreadyUsed := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errs.IsKind(err, errs.InviteAlreadyUsed):
			alreadyUsed++
		default:
			t.Errorf("unexpected redeem error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1 (already used: %d)", wins, alreadyUsed)
	}
}

func TestListPendingSkipsUsedAndExpired(t *testing.T) {
	inv, svcs, team := newTestService(t)
	ctx := context.Background()

	p1, _ := svcs.Players.Create(ctx, "T1", "M01C", "Mohamed Salah", "+447111222333")
	p2, _ := svcs.Players.Create(ctx, "T1", "M01C", "John Smith", "+447111222334")
	i1, _ := inv.Issue(ctx, team, domain.SubjectPlayer, p1.PlayerID, "M01C")
	if _, err := inv.Issue(ctx, team, domain.SubjectPlayer, p2.PlayerID, "M01C"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := inv.Redeem(ctx, "T1", domain.ChatMain, i1.Invite.InviteID, 555); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	pending, err := inv.ListPending(ctx, "T1")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].SubjectID != p2.PlayerID {
		t.Fatalf("pending = %+v", pending)
	}
}
