package auth

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store/memory"
)

// seed builds a roster with one admin (tg 900), one plain member (tg 901) and
// one active player (tg 555).
func seed(t *testing.T) (*Resolver, *service.Services) {
	t.Helper()
	mem := memory.New()
	st := mem.Stores()
	svcs := service.New(&st, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	admin, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 900, "Coach Carter", "+447000000001", "Coach")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	m, err := svcs.Members.Create(ctx, "T1", admin.MemberID, "Tess Treasurer", "+447000000002", "treasurer")
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	if _, err := svcs.Members.Activate(ctx, "T1", m.MemberID, 901); err != nil {
		t.Fatalf("activate member: %v", err)
	}
	p, err := svcs.Players.Create(ctx, "T1", admin.MemberID, "Mohamed Salah", "+447111222333")
	if err != nil {
		t.Fatalf("seed player: %v", err)
	}
	if _, err := svcs.Players.Activate(ctx, "T1", p.PlayerID, 555); err != nil {
		t.Fatalf("activate player: %v", err)
	}

	return NewResolver(svcs.Players, svcs.Members), svcs
}

func TestResolveClassification(t *testing.T) {
	r, _ := seed(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		telegramID int64
		kind       domain.ChatKind
		want       domain.Classification
	}{
		{"admin in leadership", 900, domain.ChatLeadership, domain.ClassAdmin},
		{"admin in main", 900, domain.ChatMain, domain.ClassMember},
		{"member in leadership", 901, domain.ChatLeadership, domain.ClassLeader},
		{"member in main", 901, domain.ChatMain, domain.ClassMember},
		{"player in main", 555, domain.ChatMain, domain.ClassPlayer},
		{"player in leadership", 555, domain.ChatLeadership, domain.ClassPlayer},
		{"stranger in main", 777, domain.ChatMain, domain.ClassUnregistered},
		{"stranger in leadership", 777, domain.ChatLeadership, domain.ClassUnregistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, err := r.Resolve(ctx, "T1", tt.kind, tt.telegramID, "user", "User")
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if uc.Class != tt.want {
				t.Errorf("class = %q, want %q", uc.Class, tt.want)
			}
		})
	}
}

func TestResolveInactiveIsUnregistered(t *testing.T) {
	r, svcs := seed(t)
	ctx := context.Background()

	uc, err := r.Resolve(ctx, "T1", domain.ChatMain, 555, "mo", "Mo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := svcs.Players.Deactivate(ctx, "T1", "M01C", uc.PlayerID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	uc, err = r.Resolve(ctx, "T1", domain.ChatMain, 555, "mo", "Mo")
	if err != nil {
		t.Fatalf("resolve after deactivate: %v", err)
	}
	if uc.Class != domain.ClassUnregistered {
		t.Errorf("inactive player classified as %q, want unregistered", uc.Class)
	}
}

func TestCheckPermissionMatrix(t *testing.T) {
	mk := func(class domain.Classification, kind domain.ChatKind) *UserContext {
		return &UserContext{Class: class, ChatKind: kind}
	}

	tests := []struct {
		name string
		uc   *UserContext
		perm domain.Permission
		ok   bool
	}{
		{"public for stranger", mk(domain.ClassUnregistered, domain.ChatMain), domain.PermPublic, true},
		{"player tier for stranger", mk(domain.ClassUnregistered, domain.ChatMain), domain.PermPlayer, false},
		{"player tier for player", mk(domain.ClassPlayer, domain.ChatMain), domain.PermPlayer, true},
		{"player tier for member", mk(domain.ClassMember, domain.ChatMain), domain.PermPlayer, true},
		{"leader tier for leader in leadership", mk(domain.ClassLeader, domain.ChatLeadership), domain.PermLeader, true},
		{"leader tier for admin in leadership", mk(domain.ClassAdmin, domain.ChatLeadership), domain.PermLeader, true},
		{"leader tier outside leadership", mk(domain.ClassAdmin, domain.ChatMain), domain.PermLeader, false},
		{"admin tier for leader", mk(domain.ClassLeader, domain.ChatLeadership), domain.PermAdmin, false},
		{"admin tier for admin", mk(domain.ClassAdmin, domain.ChatLeadership), domain.PermAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPermission(tt.uc, tt.perm)
			if tt.ok && err != nil {
				t.Errorf("denied: %v", err)
			}
			if !tt.ok {
				if !errs.IsKind(err, errs.Denied) {
					t.Errorf("err = %v, want Denied", err)
				}
			}
		})
	}
}

func TestCheckCommandWrongChatNamesCorrectOne(t *testing.T) {
	uc := &UserContext{Class: domain.ClassAdmin, ChatKind: domain.ChatMain}
	err := CheckCommand(uc, "/addplayer", domain.ScopeLeadershipOnly, domain.PermAdmin)
	if !errs.IsKind(err, errs.Denied) {
		t.Fatalf("err = %v, want Denied", err)
	}
	msg := errs.UserMessage(err)
	if !strings.Contains(msg, "leadership chat") {
		t.Errorf("denial %q does not name the leadership chat", msg)
	}
}
