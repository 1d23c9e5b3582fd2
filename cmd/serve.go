package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kickai-team/kickai/internal/agents"
	"github.com/kickai-team/kickai/internal/auth"
	"github.com/kickai-team/kickai/internal/bus"
	"github.com/kickai-team/kickai/internal/commands"
	"github.com/kickai-team/kickai/internal/config"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/errs"
	"github.com/kickai-team/kickai/internal/fleet"
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/logging"
	"github.com/kickai-team/kickai/internal/orchestrator"
	"github.com/kickai-team/kickai/internal/providers"
	"github.com/kickai-team/kickai/internal/service"
	"github.com/kickai-team/kickai/internal/store"
	"github.com/kickai-team/kickai/internal/store/memory"
	"github.com/kickai-team/kickai/internal/store/mongodb"
	"github.com/kickai-team/kickai/internal/tools"
)

// Fail-fast exit codes. Anything that prevents correct operation stops the
// process before the fleet accepts a single update.
const (
	exitConfig   = 1
	exitStorage  = 2
	exitRegistry = 3
)

const drainTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot fleet",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("configuration invalid", logging.Err(err))
		os.Exit(exitConfig)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Setup(level, cfg.LogFormat)
	log := slog.Default()
	ctx := context.Background()

	st, closeStore := openStorage(ctx, cfg, log)
	defer closeStore()

	svcs := service.New(&st, log)
	if err := seedBootstrapTeam(ctx, cfg, svcs, log); err != nil {
		log.Error("bootstrap team seeding failed", logging.Err(err))
		os.Exit(exitStorage)
	}

	invites := invite.NewService(&st, svcs.Players, svcs.Members, invite.Config{
		Secret: []byte(cfg.InviteSecretKey),
		TTL:    cfg.InviteTTL,
	}, log)

	provider, err := providers.FromConfig(cfg.LLM)
	if err != nil {
		log.Error("llm provider not configured", logging.Err(err))
		os.Exit(exitConfig)
	}
	log.Info("llm provider ready",
		slog.String("provider", provider.Name()),
		slog.String("model", provider.DefaultModel()))

	// Registries and agent wiring come before the fleet accepts updates.
	// A process with a half-wired registry must not answer anyone.
	var orch *orchestrator.Orchestrator
	mgr := fleet.NewManager(fleet.Config{
		Teams:   svcs.Teams,
		Factory: fleet.NewTelegoTransport,
		Handler: func(ctx context.Context, in *bus.InboundMessage) string {
			return orch.Handle(ctx, in)
		},
		Log: log,
	})

	commands.Init(commands.Inventory())
	tools.Init(tools.Inventory(tools.Deps{
		Services:  svcs,
		Invites:   invites,
		Broadcast: mgr.Broadcast,
		Version:   Version,
	}))
	if !commands.Initialized() || !tools.Initialized() {
		log.Error("registry initialization failed")
		os.Exit(exitRegistry)
	}
	defs := agents.Definitions()
	if err := agents.Validate(defs); err != nil {
		log.Error("agent definitions invalid", logging.Err(err))
		os.Exit(exitRegistry)
	}

	orch = orchestrator.New(orchestrator.Config{
		Resolver: auth.NewResolver(svcs.Players, svcs.Members),
		Runner:   agents.NewRunner(provider, cfg.LLM.Temperature, log),
		Defs:     defs,
		Invites:  invites,
		Members:  svcs.Members,
		Deadline: cfg.AgentDeadline,
		Log:      log,
	})

	if err := mgr.Start(ctx); err != nil {
		log.Error("fleet start failed", logging.Err(err))
		os.Exit(exitStorage)
	}
	log.Info("kickai serving", slog.String("version", Version))

	// SIGHUP re-reads the team table without a restart: teams created or
	// re-enabled through the admin CLI get bots, disabled teams stop routing.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	var sig os.Signal
	for sig = range sigCh {
		if sig != syscall.SIGHUP {
			break
		}
		log.Info("reloading team table")
		if err := mgr.Reload(ctx); err != nil {
			log.Error("team table reload failed", logging.Err(err))
		}
	}
	log.Info("graceful shutdown initiated", slog.String("signal", sig.String()))

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := mgr.Stop(drainCtx); err != nil {
		log.Warn("shutdown drain incomplete", logging.Err(err))
	}
}

// openStorage selects the configured backend. Unreachable storage at startup
// is fatal; there is no lazy reconnect for the initial connection.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Stores, func()) {
	switch cfg.Storage {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New().Stores(), func() {}
	default:
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Error("storage unreachable", logging.Err(err))
			os.Exit(exitStorage)
		}
		log.Info("mongodb connected", slog.String("database", cfg.Mongo.Database))
		return client.Stores(), func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Close(closeCtx)
		}
	}
}

// seedBootstrapTeam creates the default team on first start, when config
// carries the chat ids and tokens and storage has no such team yet.
func seedBootstrapTeam(ctx context.Context, cfg *config.Config, svcs *service.Services, log *slog.Logger) error {
	b := cfg.Bootstrap
	if b.MainChatID == "" || b.LeadershipChatID == "" || b.BotMainToken == "" || b.BotLeadershipToken == "" {
		return nil
	}
	if _, err := svcs.Teams.Get(ctx, cfg.DefaultTeamID); err == nil {
		return nil
	} else if !errs.IsKind(err, errs.NotFound) {
		return err
	}

	team := &domain.Team{
		TeamID:             cfg.DefaultTeamID,
		Name:               b.Name,
		MainChatID:         b.MainChatID,
		LeadershipChatID:   b.LeadershipChatID,
		BotMainToken:       b.BotMainToken,
		BotLeadershipToken: b.BotLeadershipToken,
	}
	if err := svcs.Teams.Create(ctx, team); err != nil {
		return err
	}
	log.Info("bootstrap team created",
		slog.String("team_id", team.TeamID),
		slog.String("name", team.Name))
	return nil
}
