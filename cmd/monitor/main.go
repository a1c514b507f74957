package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/buzzmonitor/internal/config"
	"github.com/hamed0406/buzzmonitor/internal/httpapi"
	apimw "github.com/hamed0406/buzzmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/buzzmonitor/internal/logging"
	"github.com/hamed0406/buzzmonitor/internal/notify"
	"github.com/hamed0406/buzzmonitor/internal/probe"
	"github.com/hamed0406/buzzmonitor/internal/repo/memory"
	"github.com/hamed0406/buzzmonitor/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	exec, err := probe.FromKind(cfg.Probe.Kind, cfg.Probe.Target, cfg.Probe.FailureRate)
	if err != nil {
		logger.Fatal("probe_init", zap.Error(err))
	}
	mon, err := scheduler.New(logger.With(zap.String("monitor", cfg.Monitor.Name)), cfg.ProbeConfig(), exec)
	if err != nil {
		logger.Fatal("monitor_init", zap.Error(err))
	}

	if cfg.Alert.Enabled {
		notifiers := notify.Multi{notify.Log{Logger: logger}}
		if s := notify.NewSlack(cfg.Alert.SlackWebhook); s != nil {
			notifiers = append(notifiers, s)
		}
		al := scheduler.NewAlerter(logger, mon, memory.NewAlerts(), notifiers, scheduler.AlerterConfig{
			Monitor:         cfg.Monitor.Name,
			AlertOnRecovery: cfg.Alert.OnRecovery,
			Cooldown:        cfg.Alert.Cooldown,
			PollInterval:    cfg.Alert.PollInterval,
		})
		go func() { _ = al.Run(ctx) }()
	}

	api := httpapi.NewServer(logger, mon)
	srv := &http.Server{
		Addr: cfg.API.Addr,
		Handler: api.Router(
			apimw.Keys{Public: cfg.API.PublicKeys, Admin: cfg.API.AdminKeys},
			cfg.API.AllowedOrigins,
			cfg.API.PublicRPM, cfg.API.PublicBurst,
			cfg.API.AdminRPM, cfg.API.AdminBurst,
		),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := mon.Start(); err != nil {
		logger.Fatal("monitor_start", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.API.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_error", zap.Error(err))
		}
	}

	// graceful shutdown: close the API first so nothing can restart the
	// monitor, then stop ticking and let in-flight probes settle within the
	// probe timeout
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Monitor.Timeout+time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("api_shutdown", zap.Error(err))
	}
	mon.Stop()

	settled := make(chan struct{})
	go func() { mon.Wait(); close(settled) }()
	select {
	case <-settled:
	case <-shCtx.Done():
		logger.Warn("probes_still_in_flight")
	}

	s := mon.Stats()
	logger.Info("bye",
		zap.Int("total_queries", s.TotalQueries),
		zap.Int("successful_queries", s.SuccessfulQueries),
		zap.Int("failed_queries", s.FailedQueries),
		zap.Duration("uptime", s.Uptime),
	)
}
