package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/commands"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store/memory"
)

type fixture struct {
	svcs    *service.Services
	invites *invite.Service
	admin   *auth.UserContext
	sent    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	commands.Reset()
	t.Cleanup(commands.Reset)
	commands.Init(commands.Inventory())

	mem := memory.New()
	st := mem.Stores()
	log := slog.New(slog.DiscardHandler)
	svcs := service.New(&st, log)
	invites := invite.NewService(&st, svcs.Players, svcs.Members,
		invite.Config{Secret: []byte("0123456789abcdef"), TTL: 72 * time.Hour}, log)

	ctx := context.Background()
	team := &domain.Team{
		TeamID: "T1", Name: "Sunday FC",
		MainChatID: "-100", LeadershipChatID: "-200",
		BotMainToken: "a", BotLeadershipToken: "b",
	}
	if err := svcs.Teams.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	adminRec, err := svcs.Members.RegisterFirstAdmin(ctx, "T1", 900, "Coach Carter", "+447000000001", "Coach")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}

	f := &fixture{
		svcs:    svcs,
		invites: invites,
		admin: &auth.UserContext{
			TelegramID: 900, TeamID: "T1", ChatKind: domain.ChatLeadership,
			Class: domain.ClassAdmin, MemberID: adminRec.MemberID,
		},
	}
	Init(Inventory(Deps{
		Services: svcs,
		Invites:  invites,
		Broadcast: func(ctx context.Context, teamID, text string) error {
			f.sent = append(f.sent, text)
			return nil
		},
		Version: "1.2.3",
	}))
	return f
}

func invoke(t *testing.T, name string, user *auth.UserContext, args map[string]any) *Envelope {
	t.Helper()
	tool, ok := Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	return tool.Invoke(context.Background(), &Call{User: user, Args: args})
}

func TestRegistryOneShot(t *testing.T) {
	newFixture(t)
	before := len(Names())
	Init([]Tool{{Name: "rogue"}})
	if len(Names()) != before {
		t.Fatal("second Init replaced the registry")
	}
	if _, ok := Get("rogue"); ok {
		t.Fatal("rogue tool registered after one-shot init")
	}
}

func TestEnvelopeJSON(t *testing.T) {
	env := Success("done", map[string]any{"n": 1})
	var decoded map[string]any
	if err := json.Unmarshal([]byte(env.JSON()), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["status"] != "success" || decoded["message"] != "done" {
		t.Errorf("decoded = %v", decoded)
	}

	fail := Failure(errs.E(errs.Denied, "no"))
	var failDecoded map[string]any
	if err := json.Unmarshal([]byte(fail.JSON()), &failDecoded); err != nil {
		t.Fatalf("unmarshal failure: %v", err)
	}
	if failDecoded["error_kind"] != "denied" {
		t.Errorf("error_kind = %v", failDecoded["error_kind"])
	}
}

func TestCreatePlayerIssuesInvite(t *testing.T) {
	f := newFixture(t)

	env := invoke(t, "create_player", f.admin, map[string]any{
		"name": "Mohamed Salah", "phone": "+447111222333",
	})
	if !env.OK() {
		t.Fatalf("create_player failed: %+v", env)
	}
	data := env.Data.(map[string]any)
	if data["player_id"] != "01MS" {
		t.Errorf("player_id = %v", data["player_id"])
	}
	url := data["invite_url"].(string)
	for _, want := range []string{"type=player", "chat=-100", "team=T1"} {
		if !strings.Contains(url, want) {
			t.Errorf("invite url %q missing %q", url, want)
		}
	}
	if !strings.Contains(env.Message, url) {
		t.Error("reply message does not carry the invite link")
	}
}

func TestCreatePlayerDeniedForNonAdmin(t *testing.T) {
	f := newFixture(t)

	player := &auth.UserContext{TeamID: "T1", ChatKind: domain.ChatLeadership, Class: domain.ClassLeader}
	env := invoke(t, "create_player", player, map[string]any{"name": "X", "phone": "+447111222333"})
	if env.OK() || env.ErrorKind != errs.Denied {
		t.Fatalf("envelope = %+v, want denied", env)
	}

	// No player was created.
	players, _ := f.svcs.Players.List(context.Background(), "T1")
	if len(players) != 0 {
		t.Errorf("players = %d after denied create", len(players))
	}
}

func TestUpdatePlayerFieldSelfVsOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.svcs.Players.Create(ctx, "T1", f.admin.MemberID, "Mohamed Salah", "+447111222333")
	f.svcs.Players.Activate(ctx, "T1", p.PlayerID, 555)
	self := &auth.UserContext{
		TelegramID: 555, TeamID: "T1", ChatKind: domain.ChatMain,
		Class: domain.ClassPlayer, PlayerID: p.PlayerID,
	}

	// Self-update without player_id.
	env := invoke(t, "update_player_field", self, map[string]any{"field": "position", "value": "striker"})
	if !env.OK() {
		t.Fatalf("self update failed: %+v", env)
	}

	// Another pending player.
	p2, _ := f.svcs.Players.Create(ctx, "T1", f.admin.MemberID, "John Smith", "+447111222334")

	// A plain player cannot update someone else.
	env = invoke(t, "update_player_field", self, map[string]any{
		"player_id": p2.PlayerID, "field": "position", "value": "winger",
	})
	if env.OK() || env.ErrorKind != errs.Denied {
		t.Fatalf("cross-player update = %+v, want denied", env)
	}

	// An admin can.
	env = invoke(t, "update_player_field", f.admin, map[string]any{
		"player_id": p2.PlayerID, "field": "position", "value": "winger",
	})
	if !env.OK() {
		t.Fatalf("admin update failed: %+v", env)
	}
}

func TestListRosterHidesMembersInMainChat(t *testing.T) {
	f := newFixture(t)
	mainUser := &auth.UserContext{TeamID: "T1", ChatKind: domain.ChatMain, Class: domain.ClassPlayer, PlayerID: "01XX"}

	env := invoke(t, "list_team_members_and_players", mainUser, nil)
	if !env.OK() {
		t.Fatalf("list failed: %+v", env)
	}
	data := env.Data.(map[string]any)
	if _, ok := data["members"]; ok {
		t.Error("members exposed in main chat")
	}

	env = invoke(t, "list_team_members_and_players", f.admin, nil)
	data = env.Data.(map[string]any)
	if _, ok := data["members"]; !ok {
		t.Error("members missing in leadership chat")
	}
}

func TestHelpToolsFollowChatScope(t *testing.T) {
	newFixture(t)
	mainUser := &auth.UserContext{TeamID: "T1", ChatKind: domain.ChatMain, Class: domain.ClassPlayer}

	env := invoke(t, "get_available_commands", mainUser, nil)
	if !env.OK() {
		t.Fatalf("get_available_commands: %+v", env)
	}
	if strings.Contains(env.Message, "/addplayer") {
		t.Error("leadership command listed in main chat help")
	}

	env = invoke(t, "get_command_help", mainUser, map[string]any{"command": "addplayer"})
	if env.OK() || env.ErrorKind != errs.Denied {
		t.Fatalf("help for out-of-scope command = %+v, want denied", env)
	}

	env = invoke(t, "get_command_help", mainUser, map[string]any{"command": "/nosuch"})
	if env.OK() || env.ErrorKind != errs.UnknownCommand {
		t.Fatalf("help for unknown command = %+v, want unknown_command", env)
	}
}

func TestBroadcastTools(t *testing.T) {
	f := newFixture(t)

	env := invoke(t, "send_announcement", f.admin, map[string]any{"text": "Training moved to 7pm"})
	if !env.OK() {
		t.Fatalf("announce: %+v", env)
	}
	if len(f.sent) != 1 || !strings.Contains(f.sent[0], "Training moved to 7pm") {
		t.Fatalf("sent = %v", f.sent)
	}

	// Players cannot broadcast.
	player := &auth.UserContext{TeamID: "T1", ChatKind: domain.ChatMain, Class: domain.ClassPlayer, PlayerID: "01XX"}
	env = invoke(t, "send_announcement", player, map[string]any{"text": "spam"})
	if env.OK() || env.ErrorKind != errs.Denied {
		t.Fatalf("player announce = %+v, want denied", env)
	}
}

func TestDataProducingNamesTracksRegistry(t *testing.T) {
	newFixture(t)
	names := DataProducingNames()
	if len(names) == 0 {
		t.Fatal("no data-producing tools")
	}
	for _, name := range names {
		tool, ok := Get(name)
		if !ok || !tool.DataProducing {
			t.Errorf("%s listed but not a registered data-producing tool", name)
		}
	}
	defs := ProviderDefs(names)
	if len(defs) != len(names) {
		t.Errorf("ProviderDefs returned %d defs for %d names", len(defs), len(names))
	}
}
