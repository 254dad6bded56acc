package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chatblanccc/PersonnelManagement/internal/config"
	"github.com/Chatblanccc/PersonnelManagement/internal/logging"
	"github.com/Chatblanccc/PersonnelManagement/internal/relay"
	"github.com/Chatblanccc/PersonnelManagement/internal/relay/discord"
	"github.com/Chatblanccc/PersonnelManagement/internal/relay/slack"
	"github.com/Chatblanccc/PersonnelManagement/internal/reminder"
	"github.com/Chatblanccc/PersonnelManagement/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server, reminder scheduler and chat relay",
		Long: `Starts the HTTP API. When reminders are enabled the scheduled reminder
sweep runs alongside it, and when a relay platform is configured undelivered
notifications are forwarded to chat. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret (or %s) is required to serve", config.EnvJWTSecret)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	seeded, err := prepareStore(gormDB)
	if err != nil {
		return err
	}
	log.Info("store ready", zap.Int("seeded_stages", seeded))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, server.StartOpts{
			DB:             gormDB,
			Port:           cfg.Server.Port,
			Secret:         []byte(cfg.Server.JWTSecret),
			ReviewPath:     cfg.Server.ReviewPath,
			DefaultSLADays: cfg.Workflow.DefaultSLADays,
			Log:            log.Named("http"),
			Out:            cmd.OutOrStdout(),
		})
	})

	if cfg.Reminders.Enabled {
		sched, err := reminder.NewScheduler(gormDB, cfg.Reminders.Schedule,
			reminder.Options{ReviewPath: cfg.Server.ReviewPath}, log.Named("reminder"))
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	}

	if cfg.Relay.Platform != "" {
		r, err := newRelay(gormDB, cfg.Relay, log.Named("relay"))
		if err != nil {
			return err
		}
		g.Go(func() error { return r.Run(ctx) })
	}

	log.Info("service started",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("reminders", cfg.Reminders.Enabled),
		zap.String("relay", cfg.Relay.Platform))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newRelayAdapter builds the chat adapter named by cfg.Platform.
func newRelayAdapter(cfg config.RelayConfig) (relay.Adapter, error) {
	switch cfg.Platform {
	case "slack":
		return slack.New(slack.AdapterOpts{BotToken: cfg.BotToken, ChannelID: cfg.ChannelID})
	case "discord":
		return discord.New(discord.AdapterOpts{BotToken: cfg.BotToken, ChannelID: cfg.ChannelID})
	default:
		return nil, fmt.Errorf("relay platform %q is not supported", cfg.Platform)
	}
}

func newRelay(gormDB *gorm.DB, cfg config.RelayConfig, log *zap.Logger) (*relay.Relay, error) {
	adapter, err := newRelayAdapter(cfg)
	if err != nil {
		return nil, err
	}
	return relay.New(gormDB, adapter, relay.Opts{
		ChannelID: cfg.ChannelID,
		Interval:  cfg.Interval,
		BatchSize: cfg.BatchSize,
		LinkBase:  cfg.LinkBase,
		Template:  cfg.Template,
		Log:       log,
	})
}
