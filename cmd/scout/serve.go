package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"KabuScout/internal/model"
	"KabuScout/internal/notifier"
	"KabuScout/internal/recorder"
	"KabuScout/internal/scheduler"
	"KabuScout/internal/server"
	"KabuScout/internal/watchlist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI, scheduled scans and the Telegram bot",
	Long: `Serves the scan UI over HTTP, runs the configured cron scans and, when a
bot token and chat id are configured, sends reports to Telegram and answers
/scan, /check, /sectors and /history commands.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Info().Str("version", version).Msg("KabuScout starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := newScanner(cfg)
	if err != nil {
		return err
	}
	wl := watchlist.New(cfg.Watchlist)
	rec := recorder.Open(cfg.Database.SQLitePath)
	defer rec.Close()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Warn().Msg("telegram not configured, reports are only logged and recorded")
	}

	sched := scheduler.NewScheduler(ctx, sc, wl, sender, rec, defaultRequest(cfg))
	sched.Universe = watchlist.NewUniverseScraper(cfg.Universe.URL, cfg.Universe.Selector, cfg.Universe.Limit, cfg.Proxy)
	if err := sched.RegisterAll(cfg.Schedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running a scan now")
		go sched.RunNow(model.Mode(cfg.Scan.Mode))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(sc, wl, rec).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("KabuScout stopped")
	return nil
}
