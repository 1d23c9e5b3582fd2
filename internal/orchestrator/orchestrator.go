// Package orchestrator routes one inbound chat update to a reply. It owns
// the full per-update state machine:
//
//	received → authorized → routed → executing(tool*) → completed | denied | timed_out | failed
//
// Every terminal state emits exactly one structured log record. The
// orchestrator never panics an update and never retries an agent; failures
// surface as classified canned replies.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kickai-team/kickai/internal/agents"
	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/bus"
	"github.com/kickai-team/kickai/internal/commands"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/format"
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/tools"
)

const defaultDeadline = 30 * time.Second

// Orchestrator turns inbound messages into replies.
type Orchestrator struct {
	resolver *auth.Resolver
	runner   *agents.Runner
	defs     map[string]agents.Definition
	invites  *invite.Service
	members  *service.MemberService
	deadline time.Duration
	log      *slog.Logger
}

// Config wires an Orchestrator. Deadline defaults to 30s.
type Config struct {
	Resolver *auth.Resolver
	Runner   *agents.Runner
	Defs     []agents.Definition
	Invites  *invite.Service
	Members  *service.MemberService
	Deadline time.Duration
	Log      *slog.Logger
}

func New(cfg Config) *Orchestrator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	return &Orchestrator{
		resolver: cfg.Resolver,
		runner:   cfg.Runner,
		defs:     agents.ByName(cfg.Defs),
		invites:  cfg.Invites,
		members:  cfg.Members,
		deadline: cfg.Deadline,
		log:      cfg.Log,
	}
}

// Handle processes one update and returns the reply text. An empty return
// means no reply is sent.
func (o *Orchestrator) Handle(ctx context.Context, in *bus.InboundMessage) string {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		o.log.Debug("empty update ignored", slog.String("team_id", in.TeamID))
		return ""
	}
	start := time.Now()

	// Bootstrap guards. An uninitialized registry is a process-wide wiring
	// failure; there is no mode that handles commands without it.
	if !commands.Initialized() || !tools.Initialized() {
		o.log.Error("CRITICAL: registries uninitialized while accepting updates",
			slog.String("team_id", in.TeamID),
			slog.Bool("commands", commands.Initialized()),
			slog.Bool("tools", tools.Initialized()))
		return errs.CannedMessage(errs.SystemCritical)
	}

	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	uc, err := o.resolver.Resolve(ctx, in.TeamID, in.ChatKind, in.TelegramID, in.Username, in.Name)
	if err != nil {
		return o.terminal("failed", in, nil, start, err)
	}

	// First-user bootstrap: a leadership chat with no members accepts only
	// /register, from anyone.
	if in.ChatKind == domain.ChatLeadership {
		count, err := o.members.Count(ctx, in.TeamID)
		if err != nil {
			return o.terminal("failed", in, uc, start, err)
		}
		if count == 0 {
			if first(text) == "/register" {
				return o.handleRegister(ctx, in, uc, text, start)
			}
			o.terminalLog("completed", in, uc, start, "first_user_prompt")
			return "Welcome! This team has no admin yet. Register yourself as the first admin with:\n" +
				"/register <your name> <phone> <role>\n" +
				"Example: /register John Smith +447000000000 \"Team Manager\""
		}
	}

	if !uc.Registered() {
		return o.handleUnregistered(ctx, in, uc, text, start)
	}

	if strings.HasPrefix(text, "/") {
		return o.handleCommand(ctx, in, uc, text, start)
	}
	return o.handleNaturalLanguage(ctx, in, uc, text, start)
}

// handleUnregistered allows exactly one side effect for strangers: invite
// redemption. Everything else gets canned guidance and no agent runs.
func (o *Orchestrator) handleUnregistered(ctx context.Context, in *bus.InboundMessage, uc *auth.UserContext, text string, start time.Time) string {
	if token, ok := o.invites.ExtractToken(text); ok {
		red, err := o.invites.Redeem(ctx, in.TeamID, in.ChatKind, token, in.TelegramID)
		if err != nil {
			return o.terminal("denied", in, uc, start, err)
		}
		o.terminalLog("completed", in, uc, start, "invite_redeemed")
		if red.SubjectKind == domain.SubjectMember {
			return format.Sanitize("Welcome aboard, " + red.Name + "! You're now an active member of the leadership team (" + red.SubjectID + "). Use /help to see what you can do.")
		}
		return format.Sanitize("Welcome to the team, " + red.Name + "! You're now an active player (" + red.SubjectID + "). Use /help to get started.")
	}

	o.terminalLog("denied", in, uc, start, "unregistered")
	if in.ChatKind == domain.ChatLeadership {
		return "You're not registered with this team's leadership. Ask an existing admin to add you with /addmember; they'll send you an invite link."
	}
	return "You're not registered with this team yet. If you have an invite link, paste it here. Otherwise ask a team admin to add you with /addplayer."
}

// handleRegister executes the bootstrap /register directly; no agent is
// involved in creating the first admin.
func (o *Orchestrator) handleRegister(ctx context.Context, in *bus.InboundMessage, uc *auth.UserContext, text string, start time.Time) string {
	name, phone, role, err := parseRegisterArgs(text)
	if err != nil {
		o.terminalLog("denied", in, uc, start, "register_bad_args")
		return errs.UserMessage(err) + "\nUsage: /register <your name> <phone> <role>"
	}

	m, err := o.members.RegisterFirstAdmin(ctx, in.TeamID, in.TelegramID, name, phone, role)
	if err != nil {
		return o.terminal("denied", in, uc, start, err)
	}
	o.terminalLog("completed", in, uc, start, "first_admin_registered")
	return format.Sanitize("Welcome, " + m.Name + "! You're registered as " + m.MemberID + " (" + m.Role + ") with admin rights. Use /help to see what you can do.")
}

// handleCommand is the slash-command path: registry lookup, the two
// authorization gates, then the mapped agent.
func (o *Orchestrator) handleCommand(ctx context.Context, in *bus.InboundMessage, uc *auth.UserContext, text string, start time.Time) string {
	name := first(text)

	d, known := commands.Lookup(name)
	if !known {
		o.terminalLog("completed", in, uc, start, "unknown_command")
		return unknownCommandReply(name, uc.ChatKind)
	}

	// /register past bootstrap: the command exists but the path is closed.
	if d.Name == "/register" {
		o.terminalLog("denied", in, uc, start, "register_after_bootstrap")
		return "This team already has its admins set up. Ask one of them to add you with /addmember."
	}

	if err := auth.CheckCommand(uc, d.Name, d.ChatScope, d.Permission); err != nil {
		return o.terminal("denied", in, uc, start, err)
	}

	agentName := agentForCommand(d.Name, uc.ChatKind)
	return o.runAgent(ctx, in, uc, agentName, text, commandNeedsData(d.Name), start)
}

// handleNaturalLanguage classifies free text with the NLP processor and
// hands it to the suggested specialist.
func (o *Orchestrator) handleNaturalLanguage(ctx context.Context, in *bus.InboundMessage, uc *auth.UserContext, text string, start time.Time) string {
	agentName := agents.MessageProcessor
	if nlp, ok := o.defs[agents.NLPProcessor]; ok {
		res, err := o.runner.Run(ctx, nlp, uc, text)
		if err != nil {
			return o.terminal(stateFor(err), in, uc, start, err)
		}
		if suggested := normalizeAgentName(res.Reply); suggested != "" {
			if _, known := o.defs[suggested]; known && suggested != agents.NLPProcessor {
				agentName = suggested
			}
		}
	}
	return o.runAgent(ctx, in, uc, agentName, text, false, start)
}

func (o *Orchestrator) runAgent(ctx context.Context, in *bus.InboundMessage, uc *auth.UserContext, agentName, text string, needsData bool, start time.Time) string {
	def, ok := o.defs[agentName]
	if !ok {
		o.log.Error("CRITICAL: routed to unknown agent", slog.String("agent", agentName))
		return errs.CannedMessage(errs.SystemCritical)
	}

	o.log.Debug("routed",
		slog.String("team_id", in.TeamID),
		slog.String("agent", agentName),
		slog.String("class", string(uc.Class)))

	res, err := o.runner.Run(ctx, def, uc, text)
	if err != nil {
		return o.terminal(stateFor(err), in, uc, start, err)
	}

	// Data verification: a "show me" intent must be answered from at least
	// one data-producing tool. The allow-list comes from the registry, so
	// new tools are recognized automatically.
	if needsData && !invokedDataTool(res.Invocations) {
		o.log.Warn("reply rejected: data intent answered without data tool",
			slog.String("agent", agentName),
			slog.String("team_id", in.TeamID))
		o.terminalLog("failed", in, uc, start, "unverified_data_reply")
		return "I couldn't verify that answer against the team's records. Please try again."
	}

	o.terminalLog("completed", in, uc, start, agentName)
	return format.Sanitize(res.Reply)
}

// terminal classifies err, logs the terminal state, and returns the
// user-facing reply.
func (o *Orchestrator) terminal(state string, in *bus.InboundMessage, uc *auth.UserContext, start time.Time, err error) string {
	kind := errs.KindOf(err)
	attrs := []any{
		slog.String("state", state),
		slog.String("team_id", in.TeamID),
		slog.String("chat_kind", string(in.ChatKind)),
		slog.Int64("telegram_id", in.TelegramID),
		slog.String("error_kind", string(kind)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Any("error", err),
	}
	if kind == errs.SystemCritical {
		o.log.Error("CRITICAL: update aborted", attrs...)
	} else {
		o.log.Info("update finished", attrs...)
	}
	return format.Sanitize(errs.UserMessage(err))
}

// terminalLog emits the single structured record for a terminal state that
// did not come from an error.
func (o *Orchestrator) terminalLog(state string, in *bus.InboundMessage, uc *auth.UserContext, start time.Time, outcome string) {
	class := domain.ClassUnregistered
	if uc != nil {
		class = uc.Class
	}
	o.log.Info("update finished",
		slog.String("state", state),
		slog.String("team_id", in.TeamID),
		slog.String("chat_kind", string(in.ChatKind)),
		slog.Int64("telegram_id", in.TelegramID),
		slog.String("class", string(class)),
		slog.String("outcome", outcome),
		slog.Duration("elapsed", time.Since(start)))
}

func stateFor(err error) string {
	if errs.IsKind(err, errs.TimedOut) {
		return "timed_out"
	}
	if errs.IsKind(err, errs.Denied) {
		return "denied"
	}
	return "failed"
}

func invokedDataTool(invocations []agents.Invocation) bool {
	dataTools := make(map[string]bool)
	for _, name := range tools.DataProducingNames() {
		dataTools[name] = true
	}
	for _, inv := range invocations {
		if dataTools[inv.Name] && inv.Envelope.OK() {
			return true
		}
	}
	return false
}

func first(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
