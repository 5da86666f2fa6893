package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/scheduler"
	"StockLens/internal/server"
	"StockLens/internal/watchlist"
)

// newServeCmd creates the serve command
func newServeCmd(opts *rootOptions, version string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API, the watchlist scheduler and Telegram polling",
		Long: `Serve the analysis API and /ws watchlist updates, refresh the watchlist on
a cron schedule and answer Telegram commands until SIGINT or SIGTERM.
Set RUN_ON_START=true to refresh the watchlist immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), opts, version)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, version string) error {
	cfg := opts.cfg
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wl, err := watchlist.NewManager(cfg.Watchlist.StateFile, cfg.Watchlist.Tickers, model.Market(cfg.App.Market))
	if err != nil {
		return fmt.Errorf("init watchlist: %w", err)
	}
	a.metrics.SetWatchlistSize(wl.Len())

	hub := server.NewHub()
	srv := server.New(a.analyzer, wl, hub, a.metrics, server.Options{
		Version:       version,
		DefaultMarket: model.Market(cfg.App.Market),
		DefaultPeriod: cfg.App.Period,
	})

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Info().Msg("telegram not configured, alerts disabled")
	}

	sched := scheduler.NewScheduler(ctx, a.analyzer, wl, sender, hub)
	sched.Period = cfg.App.Period
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.NewsCron, cfg.Schedule.DigestCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, refreshing watchlist now")
		go sched.RunRefreshNow()
	}

	log.Info().Str("version", version).Int("watchlist", wl.Len()).Msg("StockLens is running")
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info().Msg("StockLens stopped")
	return nil
}
