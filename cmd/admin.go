package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kickai-team/kickai/internal/config"
	"github.com/kickai-team/kickai/internal/domain"
	"github.com/kickai-team/kickai/internal/invite"
	"github.com/kickai-team/kickai/internal/logging"
	"github.com/kickai-team/kickai/internal/service"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operate on team records directly in storage",
	}
	cmd.AddCommand(createTeamCmd())
	cmd.AddCommand(rotateBotTokenCmd())
	cmd.AddCommand(listPendingInvitesCmd())
	cmd.AddCommand(disableTeamCmd())
	return cmd
}

// adminEnv opens storage the same way serve does, without starting the fleet.
// The runtime tolerates these commands running against live data.
func adminEnv(ctx context.Context) (*config.Config, *service.Services, *invite.Service, func()) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("configuration invalid", logging.Err(err))
		os.Exit(exitConfig)
	}
	logging.Setup("warn", cfg.LogFormat)
	log := slog.Default()

	st, closeStore := openStorage(ctx, cfg, log)
	svcs := service.New(&st, log)
	invites := invite.NewService(&st, svcs.Players, svcs.Members, invite.Config{
		Secret: []byte(cfg.InviteSecretKey),
		TTL:    cfg.InviteTTL,
	}, log)
	return cfg, svcs, invites, closeStore
}

func createTeamCmd() *cobra.Command {
	var (
		name     string
		mainChat string
		leadChat string
		mainTok  string
		leadTok  string
	)
	cmd := &cobra.Command{
		Use:   "create-team <team_id>",
		Short: "Create a team with its two chats and bot credentials",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			_, svcs, _, closeStore := adminEnv(ctx)
			defer closeStore()

			team := &domain.Team{
				TeamID:             args[0],
				Name:               name,
				MainChatID:         mainChat,
				LeadershipChatID:   leadChat,
				BotMainToken:       mainTok,
				BotLeadershipToken: leadTok,
			}
			if err := svcs.Teams.Create(ctx, team); err != nil {
				fmt.Fprintf(os.Stderr, "create-team: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("team %s created (main %s, leadership %s)\n",
				team.TeamID, team.MainChatID, team.LeadershipChatID)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "team display name")
	cmd.Flags().StringVar(&mainChat, "main-chat", "", "main chat id")
	cmd.Flags().StringVar(&leadChat, "leadership-chat", "", "leadership chat id")
	cmd.Flags().StringVar(&mainTok, "main-token", "", "bot token for the main chat")
	cmd.Flags().StringVar(&leadTok, "leadership-token", "", "bot token for the leadership chat")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("main-chat")
	cmd.MarkFlagRequired("leadership-chat")
	cmd.MarkFlagRequired("main-token")
	cmd.MarkFlagRequired("leadership-token")
	return cmd
}

func rotateBotTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-bot-token <team_id> <main|leadership> <token>",
		Short: "Replace one of a team's bot credentials",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			kind := domain.ChatKind(args[1])
			if kind != domain.ChatMain && kind != domain.ChatLeadership {
				fmt.Fprintf(os.Stderr, "rotate-bot-token: chat kind must be main or leadership, got %q\n", args[1])
				os.Exit(1)
			}

			ctx := context.Background()
			_, svcs, _, closeStore := adminEnv(ctx)
			defer closeStore()

			if err := svcs.Teams.RotateBotToken(ctx, args[0], kind, args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "rotate-bot-token: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("team %s %s bot token rotated; restart serve to pick it up\n", args[0], kind)
		},
	}
}

func listPendingInvitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-pending-invites <team_id>",
		Short: "List unredeemed, unexpired invites",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			_, _, invites, closeStore := adminEnv(ctx)
			defer closeStore()

			pending, err := invites.ListPending(ctx, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "list-pending-invites: %v\n", err)
				os.Exit(1)
			}
			if len(pending) == 0 {
				fmt.Println("no pending invites")
				return
			}
			for _, inv := range pending {
				fmt.Printf("%s  %s %s  chat=%s  expires %s\n",
					inv.InviteID, inv.SubjectKind, inv.SubjectID, inv.ChatKind,
					inv.ExpiresAt.Format("2006-01-02 15:04"))
			}
		},
	}
}

func disableTeamCmd() *cobra.Command {
	var enable bool
	cmd := &cobra.Command{
		Use:   "disable-team <team_id>",
		Short: "Disable a team so its bots are not started",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			_, svcs, _, closeStore := adminEnv(ctx)
			defer closeStore()

			if err := svcs.Teams.SetDisabled(ctx, args[0], !enable); err != nil {
				fmt.Fprintf(os.Stderr, "disable-team: %v\n", err)
				os.Exit(1)
			}
			state := "disabled"
			if enable {
				state = "enabled"
			}
			fmt.Printf("team %s %s\n", args[0], state)
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "re-enable instead of disabling")
	return cmd
}
