package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"loginreg/internal/bot"
	"loginreg/internal/config"
	"loginreg/internal/handler"
	"loginreg/internal/logging"
	"loginreg/internal/repository"
	"loginreg/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	accountSvc := service.NewAccountService(userRepo, service.BcryptHasher{}, log.WithField("component", "accounts"))
	reportSvc := service.NewReportService(userRepo)

	scheduler := service.NewSchedulerService(time.Local)
	if interval := cfg.ReportInterval(); interval > 0 {
		if _, err := scheduler.ScheduleInterval(interval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			report, err := reportSvc.Summary(jobCtx, time.Now(), interval)
			if err != nil {
				log.WithError(err).Error("registration report")
				return
			}
			log.WithFields(logrus.Fields{"total": report.Total, "recent": report.Recent}).Info(report.String())
		}); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, accountSvc, reportSvc, cfg.ReportInterval(), log.WithField("component", "bot"))
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("bot stopped with error")
			}
		}()
	}

	h := handler.New(accountSvc, repository.NewPinger(db), log.WithField("component", "http"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatalf("http server: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	log.Info("Shutdown complete.")
}
