package fleet

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/kickai-team/kickai/internal/bus"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store/memory"
)

type conn struct {
	ch   chan Update
	once sync.Once
}

func (c *conn) close() { c.once.Do(func() { close(c.ch) }) }

// fakeTransport simulates one bot: pushed updates flow out of Start's
// channel, sends are recorded, and drop() simulates a connection loss.
type fakeTransport struct {
	mu      sync.Mutex
	starts  int
	current *conn
	sent    []string
}

func (f *fakeTransport) Start(ctx context.Context) (<-chan Update, error) {
	f.mu.Lock()
	f.starts++
	c := &conn{ch: make(chan Update, 16)}
	f.current = c
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.close()
	}()
	return c.ch, nil
}

func (f *fakeTransport) Send(ctx context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, chatID+"|"+text)
	return nil
}

func (f *fakeTransport) push(u Update) {
	deadline := time.Now().Add(time.Second)
	for {
		f.mu.Lock()
		c := f.current
		f.mu.Unlock()
		if c != nil {
			c.ch <- u
			return
		}
		if time.Now().After(deadline) {
			panic("no active connection to push to")
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeTransport) drop() {
	deadline := time.Now().Add(time.Second)
	for {
		f.mu.Lock()
		c := f.current
		f.current = nil
		f.mu.Unlock()
		if c != nil {
			c.close()
			return
		}
		if time.Now().After(deadline) {
			panic("no active connection to drop")
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeTransport) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeTransport) sentCopy() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

type fixture struct {
	m     *Manager
	fakes map[string]*fakeTransport
	teams *service.TeamService
}

func newFixture(t *testing.T, handler Handler) *fixture {
	t.Helper()
	mem := memory.New()
	st := mem.Stores()
	log := slog.New(slog.DiscardHandler)
	svcs := service.New(&st, log)
	ctx := context.Background()

	if err := svcs.Teams.Create(ctx, &domain.Team{
		TeamID: "F1", Name: "Fleet FC",
		MainChatID: "-100", LeadershipChatID: "-200",
		BotMainToken: "tok-main", BotLeadershipToken: "tok-lead",
	}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := svcs.Teams.Create(ctx, &domain.Team{
		TeamID: "F2", Name: "Disabled FC",
		MainChatID: "-300", LeadershipChatID: "-400",
		BotMainToken: "tok-dis-main", BotLeadershipToken: "tok-dis-lead",
	}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := svcs.Teams.SetDisabled(ctx, "F2", true); err != nil {
		t.Fatalf("disable team: %v", err)
	}

	fakes := make(map[string]*fakeTransport)
	var mu sync.Mutex
	factory := func(token string) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		tr := &fakeTransport{}
		fakes[token] = tr
		return tr, nil
	}

	m := NewManager(Config{
		Teams:    svcs.Teams,
		Factory:  factory,
		Handler:  handler,
		Log:      log,
		SendRate: rate.Inf,
	})
	m.restartInitial = 5 * time.Millisecond
	m.restartMax = 20 * time.Millisecond

	if err := m.Start(ctx); err != nil {
		t.Fatalf("start fleet: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		m.Stop(ctx)
	})
	return &fixture{m: m, fakes: fakes, teams: svcs.Teams}
}

func TestRoutingAndReply(t *testing.T) {
	type seen struct {
		teamID string
		kind   domain.ChatKind
	}
	var mu sync.Mutex
	var got []seen
	handler := func(ctx context.Context, in *bus.InboundMessage) string {
		mu.Lock()
		got = append(got, seen{in.TeamID, in.ChatKind})
		mu.Unlock()
		return "pong: " + in.Text
	}
	fx := newFixture(t, handler)

	fx.fakes["tok-main"].push(Update{ChatID: "-100", TelegramID: 1, Text: "hello"})
	// Wait for the first reply before pushing to the other chat: ordering is
	// only guaranteed per chat, so sequence the cross-chat sends explicitly.
	waitFor(t, "main reply", func() bool { return len(fx.fakes["tok-main"].sentCopy()) == 1 })
	fx.fakes["tok-lead"].push(Update{ChatID: "-200", TelegramID: 2, Text: "admin stuff"})

	waitFor(t, "both replies", func() bool {
		return len(fx.fakes["tok-main"].sentCopy()) == 1 && len(fx.fakes["tok-lead"].sentCopy()) == 1
	})

	if s := fx.fakes["tok-main"].sentCopy()[0]; s != "-100|pong: hello" {
		t.Errorf("main reply = %q", s)
	}
	if s := fx.fakes["tok-lead"].sentCopy()[0]; s != "-200|pong: admin stuff" {
		t.Errorf("leadership reply = %q", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0].teamID != "F1" || got[0].kind != domain.ChatMain {
		t.Errorf("first update routed as %+v", got[0])
	}
	if got[1].teamID != "F1" || got[1].kind != domain.ChatLeadership {
		t.Errorf("second update routed as %+v", got[1])
	}
}

func TestPerChatOrdering(t *testing.T) {
	var mu sync.Mutex
	var order []string
	handler := func(ctx context.Context, in *bus.InboundMessage) string {
		time.Sleep(time.Millisecond)
		mu.Lock()
		order = append(order, in.Text)
		mu.Unlock()
		return in.Text
	}
	fx := newFixture(t, handler)

	want := []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7"}
	for _, text := range want {
		fx.fakes["tok-main"].push(Update{ChatID: "-100", TelegramID: 1, Text: text})
	}
	waitFor(t, "all replies", func() bool {
		return len(fx.fakes["tok-main"].sentCopy()) == len(want)
	})

	mu.Lock()
	defer mu.Unlock()
	for i, text := range want {
		if order[i] != text {
			t.Fatalf("processing order %v, want %v", order, want)
		}
	}
	for i, text := range want {
		if got := fx.fakes["tok-main"].sentCopy()[i]; got != "-100|"+text {
			t.Fatalf("reply order broken at %d: %q", i, got)
		}
	}
}

func TestUnroutedChatDropped(t *testing.T) {
	var calls atomic.Int32
	handler := func(ctx context.Context, in *bus.InboundMessage) string {
		calls.Add(1)
		return "x"
	}
	fx := newFixture(t, handler)

	fx.fakes["tok-main"].push(Update{ChatID: "-999", TelegramID: 1, Text: "who dis"})
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for unrouted chat", n)
	}
}

func TestDisabledTeamNotStarted(t *testing.T) {
	fx := newFixture(t, func(ctx context.Context, in *bus.InboundMessage) string { return "" })
	if _, ok := fx.fakes["tok-dis-main"]; ok {
		t.Error("transport built for disabled team")
	}
	if _, ok := fx.fakes["tok-dis-lead"]; ok {
		t.Error("leadership transport built for disabled team")
	}
}

func TestBroadcast(t *testing.T) {
	fx := newFixture(t, func(ctx context.Context, in *bus.InboundMessage) string { return "" })
	ctx := context.Background()

	if err := fx.m.Broadcast(ctx, "F1", "Announcement: kickoff moved to 3pm"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	sent := fx.fakes["tok-main"].sentCopy()
	if len(sent) != 1 || sent[0] != "-100|Announcement: kickoff moved to 3pm" {
		t.Errorf("broadcast sent %v", sent)
	}

	err := fx.m.Broadcast(ctx, "NOPE", "x")
	if !errs.IsKind(err, errs.NotFound) {
		t.Errorf("broadcast to unknown team: %v", err)
	}
}

// TestBroadcastSanitizesMarkup: broadcast text comes from the model, so the
// plain-text policy applies on this path exactly like on replies.
func TestBroadcastSanitizesMarkup(t *testing.T) {
	fx := newFixture(t, func(ctx context.Context, in *bus.InboundMessage) string { return "" })

	err := fx.m.Broadcast(context.Background(),
		"F1", "Announcement: **Training** is <b>cancelled</b> &amp; moved to _Sunday_")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	sent := fx.fakes["tok-main"].sentCopy()
	if len(sent) != 1 {
		t.Fatalf("sent = %v", sent)
	}
	want := "-100|Announcement: Training is cancelled & moved to Sunday"
	if sent[0] != want {
		t.Errorf("broadcast delivered %q, want %q", sent[0], want)
	}
}

// TestReloadPicksUpNewTeam: a team created while the fleet runs gets its bots
// on the next reload, and a team disabled meanwhile stops routing.
func TestReloadPicksUpNewTeam(t *testing.T) {
	var calls atomic.Int32
	handler := func(ctx context.Context, in *bus.InboundMessage) string {
		calls.Add(1)
		return "seen: " + in.Text
	}
	fx := newFixture(t, handler)
	ctx := context.Background()

	if err := fx.teams.Create(ctx, &domain.Team{
		TeamID: "F3", Name: "Late FC",
		MainChatID: "-500", LeadershipChatID: "-600",
		BotMainToken: "tok-late-main", BotLeadershipToken: "tok-late-lead",
	}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, ok := fx.fakes["tok-late-main"]; ok {
		t.Fatal("transport built before reload")
	}
	if err := fx.teams.SetDisabled(ctx, "F1", true); err != nil {
		t.Fatalf("disable team: %v", err)
	}

	if err := fx.m.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	late, ok := fx.fakes["tok-late-main"]
	if !ok {
		t.Fatal("no transport for reloaded team")
	}
	late.push(Update{ChatID: "-500", TelegramID: 7, Text: "hi"})
	waitFor(t, "reply on reloaded team", func() bool { return len(late.sentCopy()) == 1 })
	if s := late.sentCopy()[0]; s != "-500|seen: hi" {
		t.Errorf("reloaded team reply = %q", s)
	}

	before := calls.Load()
	fx.fakes["tok-main"].push(Update{ChatID: "-100", TelegramID: 1, Text: "still here?"})
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != before {
		t.Error("disabled team still routed after reload")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	handler := func(ctx context.Context, in *bus.InboundMessage) string { return "ok: " + in.Text }
	fx := newFixture(t, handler)
	main := fx.fakes["tok-main"]

	main.drop()
	waitFor(t, "reconnect", func() bool { return main.startCount() >= 2 })

	main.push(Update{ChatID: "-100", TelegramID: 1, Text: "back"})
	waitFor(t, "reply after reconnect", func() bool { return len(main.sentCopy()) == 1 })
	if s := main.sentCopy()[0]; s != "-100|ok: back" {
		t.Errorf("reply after reconnect = %q", s)
	}
}

func TestStopDrainsQueues(t *testing.T) {
	var handled atomic.Int32
	handler := func(ctx context.Context, in *bus.InboundMessage) string {
		time.Sleep(10 * time.Millisecond)
		handled.Add(1)
		return "done"
	}
	fx := newFixture(t, handler)
	main := fx.fakes["tok-main"]

	for i := 0; i < 5; i++ {
		main.push(Update{ChatID: "-100", TelegramID: 1, Text: "work"})
	}
	// Give dispatch a moment to enqueue before intake stops.
	waitFor(t, "first handled", func() bool { return handled.Load() >= 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fx.m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n := handled.Load(); n != 5 {
		t.Errorf("handled %d of 5 queued updates before shutdown", n)
	}
}
