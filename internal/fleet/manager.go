// Package fleet runs the bots. One manager owns every team's two bot
// connections, the routing table from chat id to team, and the per-chat
// worker queues that keep replies in arrival order.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/kickai-team/kickai/internal/bus"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/format"
	"github.com/kickai-team/kickai/internal/service"
)

// Handler processes one routed update and returns the reply text ("" sends
// nothing). The orchestrator is the production handler.
type Handler func(ctx context.Context, in *bus.InboundMessage) string

const (
	defaultQueueDepth = 64
	// Restart backoff for a dropped bot connection.
	restartInitial = time.Second
	restartMax     = time.Minute
	// Flapping escalation: this many restarts inside the window is an
	// operator problem, not a transient one.
	flapThreshold = 5
	flapWindow    = 5 * time.Minute
)

type route struct {
	teamID    string
	kind      domain.ChatKind
	chatID    string
	transport Transport
}

// Config wires a Manager.
type Config struct {
	Teams   *service.TeamService
	Factory TransportFactory
	Handler Handler
	Log     *slog.Logger

	QueueDepth int        // per-chat queue, default 64
	SendRate   rate.Limit // replies per second per chat, default 1
	SendBurst  int        // default 3
}

// Manager supervises the bot fleet.
type Manager struct {
	teams   *service.TeamService
	factory TransportFactory
	handler Handler
	log     *slog.Logger

	depth     int
	sendRate  rate.Limit
	sendBurst int

	restartInitial time.Duration
	restartMax     time.Duration

	mu     sync.RWMutex
	routes map[string]route // chat id → team binding
	mains  map[string]route // team id → main-chat route, for broadcasts
	polled map[string]bool  // team id + kind → poller running

	qmu    sync.Mutex
	queues map[string]chan *bus.InboundMessage
	closed bool

	pollCtx    context.Context
	pollCancel context.CancelFunc
	workCtx    context.Context
	workCancel context.CancelFunc
	pollWG     sync.WaitGroup
	workerWG   sync.WaitGroup
}

func NewManager(cfg Config) *Manager {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = rate.Every(time.Second)
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 3
	}
	return &Manager{
		teams:          cfg.Teams,
		factory:        cfg.Factory,
		handler:        cfg.Handler,
		log:            cfg.Log,
		depth:          cfg.QueueDepth,
		sendRate:       cfg.SendRate,
		sendBurst:      cfg.SendBurst,
		restartInitial: restartInitial,
		restartMax:     restartMax,
		routes:         make(map[string]route),
		mains:          make(map[string]route),
		polled:         make(map[string]bool),
		queues:         make(map[string]chan *bus.InboundMessage),
	}
}

// Start loads the routing table and connects every enabled team's bots.
// A team whose transport cannot even be constructed fails startup; transient
// connection drops after that are retried per bot, not here.
func (m *Manager) Start(ctx context.Context) error {
	m.pollCtx, m.pollCancel = context.WithCancel(context.Background())
	m.workCtx, m.workCancel = context.WithCancel(context.Background())

	teams, err := m.teams.List(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	n := 0
	for _, t := range teams {
		if t.Disabled {
			continue
		}
		if err := m.startTeam(t); err != nil {
			return err
		}
		n++
	}
	m.log.Info("fleet started", slog.Int("teams", n))
	return nil
}

// Reload re-reads the team table: new enabled teams get bots, and routes of
// disabled teams are removed so their updates are dropped at dispatch.
func (m *Manager) Reload(ctx context.Context) error {
	teams, err := m.teams.List(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	for _, t := range teams {
		if t.Disabled {
			m.mu.Lock()
			delete(m.routes, t.MainChatID)
			delete(m.routes, t.LeadershipChatID)
			delete(m.mains, t.TeamID)
			m.mu.Unlock()
			continue
		}
		m.mu.RLock()
		known := m.polled[t.TeamID+"/main"]
		m.mu.RUnlock()
		if known {
			continue
		}
		if err := m.startTeam(t); err != nil {
			m.log.Error("reload: team not started",
				slog.String("team_id", t.TeamID), slog.Any("error", err))
		}
	}
	return nil
}

func (m *Manager) startTeam(t *domain.Team) error {
	for _, kind := range []domain.ChatKind{domain.ChatMain, domain.ChatLeadership} {
		tr, err := m.factory(t.BotToken(kind))
		if err != nil {
			return fmt.Errorf("team %s %s bot: %w", t.TeamID, kind, err)
		}
		r := route{teamID: t.TeamID, kind: kind, chatID: t.ChatID(kind), transport: tr}

		m.mu.Lock()
		m.routes[r.chatID] = r
		if kind == domain.ChatMain {
			m.mains[t.TeamID] = r
		}
		m.polled[t.TeamID+"/"+string(kind)] = true
		m.mu.Unlock()

		m.pollWG.Add(1)
		go m.poll(r)
	}
	return nil
}

// poll keeps one bot connected. Drops restart with exponential backoff;
// repeated drops inside the flap window escalate to a critical log and the
// backoff keeps going, because a half-dead bot is still better than none.
func (m *Manager) poll(r route) {
	defer m.pollWG.Done()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.restartInitial
	bo.MaxInterval = m.restartMax
	bo.MaxElapsedTime = 0

	var failures []time.Time
	for {
		updates, err := r.transport.Start(m.pollCtx)
		if err == nil {
			bo.Reset()
			m.log.Info("bot connected",
				slog.String("team_id", r.teamID), slog.String("chat_kind", string(r.kind)))
			for u := range updates {
				m.dispatch(u)
			}
		}
		if m.pollCtx.Err() != nil {
			return
		}

		now := time.Now()
		failures = append(failures, now)
		for len(failures) > 0 && now.Sub(failures[0]) > flapWindow {
			failures = failures[1:]
		}
		if len(failures) >= flapThreshold {
			m.log.Error("CRITICAL: bot connection flapping",
				slog.String("team_id", r.teamID),
				slog.String("chat_kind", string(r.kind)),
				slog.Int("failures", len(failures)),
				slog.Duration("window", flapWindow))
			failures = failures[:0]
		}

		wait := bo.NextBackOff()
		m.log.Warn("bot connection lost, restarting",
			slog.String("team_id", r.teamID),
			slog.String("chat_kind", string(r.kind)),
			slog.Duration("retry_in", wait),
			slog.Any("error", err))
		select {
		case <-m.pollCtx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// dispatch resolves one raw update through the routing table and enqueues it
// on its chat's FIFO queue. Updates from chats the table does not know are
// dropped silently; bots get added to random groups.
func (m *Manager) dispatch(u Update) {
	m.mu.RLock()
	r, ok := m.routes[u.ChatID]
	m.mu.RUnlock()
	if !ok {
		m.log.Debug("update from unrouted chat", slog.String("chat_id", u.ChatID))
		return
	}

	in := &bus.InboundMessage{
		TeamID:     r.teamID,
		ChatKind:   r.kind,
		ChatID:     u.ChatID,
		TelegramID: u.TelegramID,
		Username:   u.Username,
		Name:       u.Name,
		Text:       u.Text,
		MessageID:  u.MessageID,
		ReceivedAt: time.Now(),
	}

	q := m.queueFor(r)
	if q == nil {
		return // shutting down
	}
	select {
	case q <- in:
	default:
		m.log.Warn("chat queue full, update dropped",
			slog.String("team_id", r.teamID),
			slog.String("chat_id", u.ChatID))
	}
}

func (m *Manager) queueFor(r route) chan *bus.InboundMessage {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if m.closed {
		return nil
	}
	q, ok := m.queues[r.chatID]
	if !ok {
		q = make(chan *bus.InboundMessage, m.depth)
		m.queues[r.chatID] = q
		m.workerWG.Add(1)
		go m.work(r, q)
	}
	return q
}

// work is the single consumer for one chat. One goroutine per chat is the
// ordering guarantee: replies land in the order the messages arrived.
func (m *Manager) work(r route, q chan *bus.InboundMessage) {
	defer m.workerWG.Done()
	lim := rate.NewLimiter(m.sendRate, m.sendBurst)

	for in := range q {
		reply := m.handler(m.workCtx, in)
		if reply == "" {
			continue
		}
		if err := lim.Wait(m.workCtx); err != nil {
			return
		}
		if err := r.transport.Send(m.workCtx, in.ChatID, reply); err != nil {
			m.log.Error("reply not delivered",
				slog.String("team_id", r.teamID),
				slog.String("chat_id", in.ChatID),
				slog.Any("error", err))
		}
	}
}

// Broadcast sends to a team's main chat through that team's own bot. This is
// what the announcement tools plug into. The text passes through the same
// plain-text sanitizer as replies; broadcast content comes from the model
// and gets no markup exemption.
func (m *Manager) Broadcast(ctx context.Context, teamID, text string) error {
	m.mu.RLock()
	r, ok := m.mains[teamID]
	m.mu.RUnlock()
	if !ok {
		return errs.E(errs.NotFound, "This team has no active main chat.")
	}
	return r.transport.Send(ctx, r.chatID, format.Sanitize(text))
}

// Stop drains the fleet: intake stops first, queued updates finish, then
// workers exit. ctx bounds the drain; on expiry in-flight handlers are
// cancelled and Stop returns the context error.
func (m *Manager) Stop(ctx context.Context) error {
	m.pollCancel()
	m.pollWG.Wait()

	m.qmu.Lock()
	if !m.closed {
		m.closed = true
		for _, q := range m.queues {
			close(q)
		}
	}
	m.qmu.Unlock()

	done := make(chan struct{})
	go func() {
		m.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.workCancel()
		m.log.Info("fleet stopped")
		return nil
	case <-ctx.Done():
		m.workCancel()
		m.log.Warn("fleet drain cut short", slog.Any("error", ctx.Err()))
		return ctx.Err()
	}
}
