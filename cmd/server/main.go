package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/boss-notifier/config"
	"github.com/ErlanBelekov/boss-notifier/internal/clock"
	"github.com/ErlanBelekov/boss-notifier/internal/email"
	"github.com/ErlanBelekov/boss-notifier/internal/health"
	"github.com/ErlanBelekov/boss-notifier/internal/infrastructure"
	"github.com/ErlanBelekov/boss-notifier/internal/linebot"
	ctxlog "github.com/ErlanBelekov/boss-notifier/internal/log"
	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
	"github.com/ErlanBelekov/boss-notifier/internal/notify"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
	httptransport "github.com/ErlanBelekov/boss-notifier/internal/transport/http"
	"github.com/ErlanBelekov/boss-notifier/internal/transport/http/handler"
	"github.com/ErlanBelekov/boss-notifier/internal/usecase"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, err := infrastructure.OpenStore(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	bot, err := linebot.New(cfg.LineChannelSecret, cfg.LineChannelAccessToken, logger)
	if err != nil {
		stop()
		log.Fatalf("linebot: %v", err)
	}

	// Delivery
	mailer := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, cfg.NotifyEmails, logger)
	notifier := notify.NewService(bot, mailer, notify.Config{
		Recipients: notify.Recipients{
			Target:  notify.Target(cfg.NotifyTarget),
			UserID:  cfg.LineUserID,
			GroupID: cfg.LineGroupID,
		},
		Emails:   cfg.NotifyEmails,
		Location: cfg.Location(),
	}, logger)

	// Scheduling
	clk := clock.System()
	core := scheduler.NewCore(clk, notifier, logger)
	spawnUsecase := usecase.NewSpawnUsecase(store.Entities, core, notifier, clk, cfg.LeadTime(), logger)
	commandUsecase := usecase.NewCommandUsecase(spawnUsecase, cfg.Grammar(), cfg.Location(), logger)

	metrics.Register()
	checker := health.NewChecker(map[string]health.Pinger{
		"store": store.Pinger,
		"line":  bot,
	}, logger, prometheus.DefaultRegisterer)

	if _, err := spawnUsecase.Refresh(ctx, "startup"); err != nil {
		logger.Error("initial refresh failed", "error", err)
	}

	if cfg.RefreshCron != "" {
		refresher, err := scheduler.NewRefresher(cfg.RefreshCron, cfg.Location(), func(ctx context.Context) error {
			_, err := spawnUsecase.Refresh(ctx, "cron")
			return err
		}, logger)
		if err != nil {
			stop()
			log.Fatalf("refresher: %v", err)
		}
		go refresher.Start(ctx)
	}

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger,
			handler.NewWebhookHandler(bot, commandUsecase, logger),
			handler.NewSpawnHandler(spawnUsecase, logger),
		),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	logger.Info("timers cancelled", "count", core.CancelAll())
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
